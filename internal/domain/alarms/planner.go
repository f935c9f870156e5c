package alarms

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"medibot-schedule/internal/platform/logger"
	"medibot-schedule/internal/ports/alarmhost"
	"medibot-schedule/internal/timecodec"
)

var ErrInvalidName = errors.New("invalid alarm name")

// RegistrationError es un rechazo del host de scheduling (p.ej. permiso
// revocado). Se reporta por su propio canal: nunca voltea la escritura
// del store que disparó el (re)agendado.
type RegistrationError struct {
	Name string
	Err  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("alarm registration for %q failed: %v", e.Name, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// Registration es el estado observable por nombre:
// ausente = Unregistered, presente = Registered(hour, minute).
type Registration struct {
	Hour   int
	Minute int
}

// Planner mantiene exactamente un recordatorio diario por nombre de
// medicamento. El identificador en el host deriva del nombre, nunca de la
// hora: cambiar la hora reemplaza, jamás duplica.
//
// El estado local es descartable: el host persiste sus triggers entre
// reinicios y cada edición visible re-agenda, así que no hace falta
// persistencia propia.
type Planner struct {
	host alarmhost.Host
	log  logger.Logger

	mu   sync.Mutex
	regs map[string]Registration
}

func NewPlanner(host alarmhost.Host, log logger.Logger) *Planner {
	if log == nil {
		log = logger.Nop()
	}
	return &Planner{
		host: host,
		log:  log,
		regs: make(map[string]Registration),
	}
}

// Schedule registra (o re-registra) el trigger diario para name.
// Cualquier estado previo pasa a Registered(hour, minute).
func (p *Planner) Schedule(name string, hour, minute int) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	// valida rango y de paso obtiene la forma legible para el log
	display, err := timecodec.Format(hour, minute)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.host.ScheduleDaily(name, hour, minute); err != nil {
		return &RegistrationError{Name: name, Err: err}
	}

	p.regs[name] = Registration{Hour: hour, Minute: minute}
	p.log.Info("daily reminder scheduled", map[string]any{"name": name, "at": display})
	return nil
}

// Cancel vuelve name a Unregistered. Cancelar un nombre ausente no es error;
// igual se le pide al host, por si quedó un trigger huérfano de un proceso
// anterior.
func (p *Planner) Cancel(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.host.Cancel(name); err != nil {
		return &RegistrationError{Name: name, Err: err}
	}

	if _, ok := p.regs[name]; ok {
		delete(p.regs, name)
		p.log.Info("daily reminder cancelled", map[string]any{"name": name})
	}
	return nil
}

// Registration devuelve el estado actual para name.
func (p *Planner) Registration(name string) (Registration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	reg, ok := p.regs[name]
	return reg, ok
}
