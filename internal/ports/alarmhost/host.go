package alarmhost

// Host es la facilidad de scheduling del entorno: dispara una acción
// una vez al día a una hora fija, identificada por un id opaco.
// Re-agendar el mismo id reemplaza el disparador anterior.
type Host interface {
	ScheduleDaily(id string, hour, minute int) error
	Cancel(id string) error
}
