package postgres

import (
	"context"
	"database/sql"

	"medibot-schedule/internal/ports/devicefeed"
)

// DeviceStatusRepo lee el espejo de device_status/{dispenser,battery}
// como filas key/value. Solo lectura: quien escribe es el firmware bridge.
type DeviceStatusRepo struct {
	db *sql.DB
}

func NewDeviceStatusRepo(db *sql.DB) *DeviceStatusRepo {
	return &DeviceStatusRepo{db: db}
}

func (r *DeviceStatusRepo) Snapshot(ctx context.Context) (devicefeed.Reading, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT key, value
		FROM device_status
		WHERE key IN ('dispenser', 'battery')
	`)
	if err != nil {
		return devicefeed.Reading{}, err
	}
	defer rows.Close()

	var reading devicefeed.Reading
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return devicefeed.Reading{}, err
		}
		if !value.Valid {
			continue
		}
		switch key {
		case "dispenser":
			reading.Dispenser = value.String
		case "battery":
			b := value.String
			reading.Battery = &b
		}
	}

	return reading, rows.Err()
}
