package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"medibot-schedule/internal/domain/medicines"
)

type medicineRepo struct {
	mu     sync.RWMutex
	byUser map[string]map[string]string // userID -> key -> time
}

func NewMedicineRepo() medicines.Repository {
	return &medicineRepo{
		byUser: make(map[string]map[string]string),
	}
}

func (r *medicineRepo) Put(ctx context.Context, userID, key, time string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(key) == "" {
		return errors.New("medicine key required")
	}
	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[string]string)
	}
	r.byUser[userID][key] = time
	return nil
}

func (r *medicineRepo) Delete(ctx context.Context, userID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// idempotente: key ausente no es error
	delete(r.byUser[userID], key)
	return nil
}

func (r *medicineRepo) List(ctx context.Context, userID string) ([]medicines.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]medicines.Record, 0, len(r.byUser[userID]))
	for key, t := range r.byUser[userID] {
		out = append(out, medicines.Record{Key: key, Time: t})
	}

	// orden estable por key (solo para consistencia en dev; el orden
	// cronológico lo impone el service)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})

	return out, nil
}
