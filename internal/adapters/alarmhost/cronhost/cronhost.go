package cronhost

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"medibot-schedule/internal/ports/alarmhost"
)

var _ alarmhost.Host = (*Host)(nil)

// Host implementa alarmhost.Host sobre robfig/cron: un trigger "m h * * *"
// por id, reemplazado en cada ScheduleDaily del mismo id.
//
// Qué pasa al disparar es decisión del caller (FireFunc); la entrega de la
// notificación en sí queda fuera de este servicio.
type Host struct {
	cron *cron.Cron
	fire func(id string)

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New arranca el cron en la zona horaria dada. fire puede ser nil.
func New(loc *time.Location, fire func(id string)) *Host {
	if loc == nil {
		loc = time.Local
	}
	if fire == nil {
		fire = func(string) {}
	}

	c := cron.New(cron.WithLocation(loc))
	c.Start()

	return &Host{
		cron:    c,
		fire:    fire,
		entries: make(map[string]cron.EntryID),
	}
}

// NewFromEnv usa ALARM_TZ (IANA, p.ej. "America/Lima"); default: local.
func NewFromEnv(fire func(id string)) *Host {
	loc := time.Local
	if tz := strings.TrimSpace(os.Getenv("ALARM_TZ")); tz != "" {
		if parsed, err := time.LoadLocation(tz); err == nil {
			loc = parsed
		}
	}
	return New(loc, fire)
}

func (h *Host) ScheduleDaily(id string, hour, minute int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	entryID, err := h.cron.AddFunc(spec, func() { h.fire(id) })
	if err != nil {
		return fmt.Errorf("cronhost: schedule %q: %w", id, err)
	}

	// reemplazo, no duplicado: recién acá soltamos el entry anterior
	if old, ok := h.entries[id]; ok {
		h.cron.Remove(old)
	}
	h.entries[id] = entryID
	return nil
}

func (h *Host) Cancel(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if entry, ok := h.entries[id]; ok {
		h.cron.Remove(entry)
		delete(h.entries, id)
	}
	return nil
}

// Stop frena el cron; espera a los jobs en vuelo.
func (h *Host) Stop() {
	<-h.cron.Stop().Done()
}
