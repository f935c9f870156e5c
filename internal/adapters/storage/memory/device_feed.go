package memory

import (
	"context"
	"sync"

	"medibot-schedule/internal/ports/devicefeed"
)

// DeviceFeed es el feed del dispensador para dev/tests: arranca sin
// dispositivo ("not connected", sin batería) y se setea a mano.
type DeviceFeed struct {
	mu        sync.RWMutex
	dispenser string
	battery   *string
}

func NewDeviceFeed() *DeviceFeed {
	return &DeviceFeed{}
}

// Set pisa la lectura actual. battery nil = sin dato.
func (f *DeviceFeed) Set(dispenser string, battery *string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispenser = dispenser
	f.battery = battery
}

func (f *DeviceFeed) Snapshot(ctx context.Context) (devicefeed.Reading, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	r := devicefeed.Reading{Dispenser: f.dispenser}
	if f.battery != nil {
		b := *f.battery
		r.Battery = &b
	}
	return r, nil
}
