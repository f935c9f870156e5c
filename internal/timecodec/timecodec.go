package timecodec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidFormat = errors.New("invalid time format")
	ErrOutOfRange    = errors.New("time out of range")
)

// Format produce la forma canónica "h:mm a":
// hora 12h sin cero inicial (0 -> 12, 13 -> 1), minuto siempre 2 dígitos, AM/PM mayúsculas.
func Format(hour, minute int) (string, error) {
	if hour < 0 || hour > 23 {
		return "", fmt.Errorf("%w: hour=%d", ErrOutOfRange, hour)
	}
	if minute < 0 || minute > 59 {
		return "", fmt.Errorf("%w: minute=%d", ErrOutOfRange, minute)
	}

	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}

	h := hour % 12
	if h == 0 {
		h = 12
	}

	return fmt.Sprintf("%d:%02d %s", h, minute, meridiem), nil
}

// Parse convierte "h:mm a" a (hora 0-23, minuto 0-59).
// Tokeniza por ':' y espacio y exige al menos [H, MM, AM|PM];
// tokens extra se ignoran (comportamiento del picker original).
func Parse(display string) (hour, minute int, err error) {
	parts := strings.FieldsFunc(display, func(r rune) bool {
		return r == ':' || r == ' '
	})
	if len(parts) < 3 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidFormat, display)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 1 || h > 12 {
		return 0, 0, fmt.Errorf("%w: hour token %q", ErrInvalidFormat, parts[0])
	}

	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("%w: minute token %q", ErrInvalidFormat, parts[1])
	}

	switch strings.ToUpper(parts[2]) {
	case "PM":
		if h != 12 {
			h += 12
		}
	case "AM":
		if h == 12 {
			h = 0
		}
	default:
		return 0, 0, fmt.Errorf("%w: meridiem token %q", ErrInvalidFormat, parts[2])
	}

	return h, m, nil
}

// Normalize re-emite cualquier entrada parseable en la forma canónica
// (ej. "07:05 pm" -> "7:05 PM").
func Normalize(display string) (string, error) {
	h, m, err := Parse(display)
	if err != nil {
		return "", err
	}
	return Format(h, m)
}

// MinuteOfDay es la clave de orden cronológico (0 = medianoche).
// Asume entrada ya validada; fuera de rango no se chequea aquí.
func MinuteOfDay(hour, minute int) int {
	return hour*60 + minute
}
