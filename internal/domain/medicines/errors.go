package medicines

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTimeFormat = errors.New("invalid time format")
)

// StoreErrorKind clasifica fallas del store remoto. En el cliente original
// estas fallas se descartaban en silencio; acá siempre llegan al caller.
type StoreErrorKind string

const (
	StoreUnauthenticated  StoreErrorKind = "unauthenticated"
	StoreNetworkFailure   StoreErrorKind = "network_failure"
	StorePermissionDenied StoreErrorKind = "permission_denied"
)

type StoreError struct {
	Kind StoreErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("store error: %s", e.Kind)
	}
	return fmt.Sprintf("store error: %s: %v", e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(kind StoreErrorKind, err error) *StoreError {
	return &StoreError{Kind: kind, Err: err}
}

// AsStoreError extrae un *StoreError de la cadena de wrapping, si hay.
func AsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
