package medicines

import "context"

// Record es la forma cruda de un registro en el store remoto:
// users/{userID}/medicines/{Key} -> Time. El decode y el orden
// son responsabilidad del service, no del adapter.
type Record struct {
	Key  string
	Time string
}

type Repository interface {
	// Put crea o pisa el registro (upsert). Idempotente bajo repetición.
	Put(ctx context.Context, userID, key, time string) error
	// Delete es idempotente: borrar una key ausente no es error.
	Delete(ctx context.Context, userID, key string) error
	// List devuelve todos los registros del usuario, sin orden garantizado.
	List(ctx context.Context, userID string) ([]Record, error)
}
