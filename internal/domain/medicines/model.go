package medicines

import "time"

// Medicine es la única entidad del dominio: el nombre es la clave natural
// (no hay ID surrogate) y Time siempre está en la forma canónica "h:mm a".
type Medicine struct {
	Name string
	Time string
}

// Snapshot es una lectura completa y consistente de la agenda de un usuario
// en un instante. Los suscriptores reciben una secuencia de snapshots
// inmutables; nunca mutan la lista directamente.
type Snapshot struct {
	ID        string
	Medicines []Medicine
	At        time.Time
}
