package medicines

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"medibot-schedule/internal/platform/logger"
	"medibot-schedule/internal/timecodec"
)

// Timeout acotado por operación contra el store remoto.
// El cliente original disparaba escrituras sin límite; acá nada cuelga.
const defaultOpTimeout = 5 * time.Second

type Service struct {
	repo      Repository
	log       logger.Logger
	now       func() time.Time
	opTimeout time.Duration

	mu   sync.Mutex
	subs map[string]map[chan Snapshot]struct{}
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:      repo,
		log:       log,
		now:       time.Now,
		opTimeout: defaultOpTimeout,
		subs:      make(map[string]map[chan Snapshot]struct{}),
	}
}

// Upsert valida y normaliza la entrada, escribe (crea o pisa: exactamente
// un registro por nombre) y recién después republica el snapshot.
// Una mutación fallida no publica nada: la última lista buena queda vigente.
func (s *Service) Upsert(ctx context.Context, userID, name, displayTime string) (Medicine, error) {
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if userID == "" || name == "" {
		return Medicine{}, ErrInvalidInput
	}

	canonical, err := timecodec.Normalize(displayTime)
	if err != nil {
		return Medicine{}, fmt.Errorf("%w: %v", ErrInvalidTimeFormat, err)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.repo.Put(opCtx, userID, encodeName(name), canonical); err != nil {
		err = s.asStoreError(err)
		s.log.Error("medicine upsert failed", map[string]any{"user": userID, "error": err.Error()})
		return Medicine{}, err
	}

	s.publish(ctx, userID)
	return Medicine{Name: name, Time: canonical}, nil
}

// UpdateTime escribe solo el time en la key existente. El store remoto es
// permisivo: escribir en una key ausente la crea (upsert-on-edit, igual que
// el backend original). La distinción queda en manos del suscriptor.
func (s *Service) UpdateTime(ctx context.Context, userID, name, newTime string) (Medicine, error) {
	return s.Upsert(ctx, userID, name, newTime)
}

// Delete es idempotente: borrar un nombre ausente no es error.
// Republica solo ante éxito remoto confirmado.
func (s *Service) Delete(ctx context.Context, userID, name string) error {
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if userID == "" || name == "" {
		return ErrInvalidInput
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.repo.Delete(opCtx, userID, encodeName(name)); err != nil {
		err = s.asStoreError(err)
		s.log.Error("medicine delete failed", map[string]any{"user": userID, "error": err.Error()})
		return err
	}

	s.publish(ctx, userID)
	return nil
}

// List relee la colección completa, decodifica y ordena cronológicamente
// por la representación 24h (el orden lexicográfico sobre "h:mm a" era un
// bug latente del cliente original: "10:00 AM" quedaba antes que "9:00 AM").
// Registros con key o time malformados se saltean, nunca tiran el batch.
func (s *Service) List(ctx context.Context, userID string) ([]Medicine, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	records, err := s.repo.List(opCtx, userID)
	if err != nil {
		return nil, s.asStoreError(err)
	}

	type entry struct {
		med Medicine
		key int
	}
	entries := make([]entry, 0, len(records))
	for _, rec := range records {
		name, err := decodeName(rec.Key)
		if err != nil || strings.TrimSpace(name) == "" {
			s.log.Warn("skipping malformed medicine key", map[string]any{"user": userID, "key": rec.Key})
			continue
		}
		h, m, err := timecodec.Parse(rec.Time)
		if err != nil {
			s.log.Warn("skipping medicine with unparsable time", map[string]any{"user": userID, "name": name, "time": rec.Time})
			continue
		}
		entries = append(entries, entry{
			med: Medicine{Name: name, Time: rec.Time},
			key: timecodec.MinuteOfDay(h, m),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].key != entries[j].key {
			return entries[i].key < entries[j].key
		}
		return entries[i].med.Name < entries[j].med.Name
	})

	out := make([]Medicine, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.med)
	}
	return out, nil
}

// Subscribe abre la vista viva de la agenda: entrega un snapshot inicial y
// luego uno por cada mutación confirmada. El caller DEBE invocar cancel al
// terminar la sesión (re-suscribirse sin cancelar pierde el canal viejo).
// Un consumidor lento nunca bloquea la publicación: el buffer es de 1 y un
// snapshot viejo se descarta a favor del más nuevo.
func (s *Service) Subscribe(ctx context.Context, userID string) (<-chan Snapshot, func(), error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil, ErrInvalidInput
	}

	initial, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan Snapshot, 1)
	ch <- initial

	s.mu.Lock()
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[chan Snapshot]struct{})
	}
	s.subs[userID][ch] = struct{}{}
	s.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[userID], ch)
			if len(s.subs[userID]) == 0 {
				delete(s.subs, userID)
			}
			s.mu.Unlock()
			close(ch)
			close(done)
		})
	}

	// liberar también cuando muere el contexto de la sesión; done evita que
	// la goroutine sobreviva a un cancel explícito con ctx no cancelable
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	s.log.Debug("schedule subscription opened", map[string]any{"user": userID})
	return ch, cancel, nil
}

// publish relee y empuja el snapshot a todos los suscriptores del usuario.
// Corre tras la confirmación remota; si la relectura falla, se loguea y la
// última lista buena queda vigente (no se empuja nada parcial).
func (s *Service) publish(ctx context.Context, userID string) {
	s.mu.Lock()
	n := len(s.subs[userID])
	s.mu.Unlock()
	if n == 0 {
		return
	}

	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		s.log.Warn("snapshot re-read failed, keeping last known-good list", map[string]any{"user": userID, "error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs[userID] {
		select {
		case ch <- snap:
		default:
			// buffer lleno: descartar el snapshot viejo y dejar el nuevo
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (s *Service) snapshot(ctx context.Context, userID string) (Snapshot, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ID:        uuid.NewString(),
		Medicines: list,
		At:        s.now(),
	}, nil
}

// asStoreError garantiza la taxonomía StoreError hacia arriba: lo que el
// adapter no clasificó se reporta como falla de red (deadline incluido).
func (s *Service) asStoreError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsStoreError(err); ok {
		return err
	}
	return NewStoreError(StoreNetworkFailure, err)
}
