package postgres

import (
	"context"
	"database/sql"
	"strings"

	"medibot-schedule/internal/domain/medicines"
)

// MedicinesRepo persiste la colección users/{userID}/medicines/{key} como
// filas (user_id, name_key, dose_time). PK compuesta (user_id, name_key):
// el upsert del remoto es un ON CONFLICT acá.
type MedicinesRepo struct {
	db *sql.DB
}

func NewMedicinesRepo(db *sql.DB) *MedicinesRepo {
	return &MedicinesRepo{db: db}
}

func (r *MedicinesRepo) Put(ctx context.Context, userID, key, time string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medicines (user_id, name_key, dose_time, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (user_id, name_key)
		DO UPDATE SET dose_time = EXCLUDED.dose_time, updated_at = now()
	`, userID, key, time)
	return classify(err)
}

func (r *MedicinesRepo) Delete(ctx context.Context, userID, key string) error {
	// idempotente: 0 filas afectadas no es error
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM medicines
		WHERE user_id = $1 AND name_key = $2
	`, userID, key)
	return classify(err)
}

func (r *MedicinesRepo) List(ctx context.Context, userID string) ([]medicines.Record, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT name_key, dose_time
		FROM medicines
		WHERE user_id = $1
		ORDER BY name_key ASC
	`, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := make([]medicines.Record, 0)
	for rows.Next() {
		var rec medicines.Record
		if err := rows.Scan(&rec.Key, &rec.Time); err != nil {
			return nil, classify(err)
		}
		out = append(out, rec)
	}

	return out, classify(rows.Err())
}
