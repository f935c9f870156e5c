package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"medibot-schedule/internal/domain/medicines"
)

// classify mapea errores del driver a la taxonomía StoreError del dominio.
// Lo que no se reconoce cuenta como falla de red (timeouts incluidos).
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "28000", "28P01": // invalid_authorization_specification, invalid_password
			return medicines.NewStoreError(medicines.StoreUnauthenticated, err)
		case "42501": // insufficient_privilege
			return medicines.NewStoreError(medicines.StorePermissionDenied, err)
		}
	}

	return medicines.NewStoreError(medicines.StoreNetworkFailure, err)
}
