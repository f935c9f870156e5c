package devicestatus

import (
	"strings"

	"medibot-schedule/internal/ports/devicefeed"
)

// Connectivity define los estados de conexión del dispensador.
// @Enum connected, not_connected
type Connectivity string

const (
	ConnectivityConnected    Connectivity = "connected"
	ConnectivityNotConnected Connectivity = "not_connected"
)

// Status es el estado mostrable del dispensador pareado.
// Battery nil = el feed no publicó batería (el cliente muestra "N/A").
type Status struct {
	Dispenser Connectivity
	Battery   *string
}

// fromReading normaliza el feed crudo: solo el valor exacto "connected"
// cuenta como conectado; todo lo demás (incluido ausente) es not_connected.
func fromReading(r devicefeed.Reading) Status {
	st := Status{Dispenser: ConnectivityNotConnected}
	if r.Dispenser == "connected" {
		st.Dispenser = ConnectivityConnected
	}
	if r.Battery != nil && strings.TrimSpace(*r.Battery) != "" {
		b := strings.TrimSpace(*r.Battery)
		st.Battery = &b
	}
	return st
}
