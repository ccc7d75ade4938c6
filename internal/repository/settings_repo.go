package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"water_tank/internal/models"
)

const (
	settingsRowID = 1

	upsertSettingsSQL = `
		INSERT INTO settings (id, max_sensor_no_signal_time, max_sensor_log_records, sensor_log_enabled)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			max_sensor_no_signal_time=excluded.max_sensor_no_signal_time,
			max_sensor_log_records=excluded.max_sensor_log_records,
			sensor_log_enabled=excluded.sensor_log_enabled
	`

	selectSettingsSQL = `
		SELECT max_sensor_no_signal_time, max_sensor_log_records, sensor_log_enabled
		FROM settings WHERE id = ?
	`
)

type SettingsSQL struct {
	db      *sql.DB
	dialect Dialect
}

func NewSettingsSQL(db *sql.DB, dialect Dialect) *SettingsSQL {
	return &SettingsSQL{db: db, dialect: dialect}
}

// Save updates or inserts the settings row (id always 1).
func (r *SettingsSQL) Save(ctx context.Context, s models.Settings) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(upsertSettingsSQL),
		settingsRowID,
		s.MaxSensorNoSignalTime,
		s.MaxSensorLogRecords,
		s.SensorLogEnabled,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (r *SettingsSQL) Load(ctx context.Context) (models.Settings, bool, error) {
	var s models.Settings
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(selectSettingsSQL), settingsRowID).Scan(
		&s.MaxSensorNoSignalTime,
		&s.MaxSensorLogRecords,
		&s.SensorLogEnabled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Settings{}, false, nil
	}
	if err != nil {
		return models.Settings{}, false, fmt.Errorf("load settings: %w", err)
	}
	return s, true, nil
}
