package devicefeed

import "context"

// Reading es el estado crudo del dispensador tal como lo publica el feed:
// conectividad como string libre y batería opcional (nil = ausente).
type Reading struct {
	Dispenser string
	Battery   *string
}

// Feed expone el estado del dispensador. Solo lectura: el core nunca
// escribe en este canal.
type Feed interface {
	Snapshot(ctx context.Context) (Reading, error)
}
