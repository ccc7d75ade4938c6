package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"water_tank/internal/models"
)

const (
	insertSensorLogSQL = `INSERT INTO sensor_log (id, received_at, topic, payload) VALUES (?, ?, ?, ?)`
	trimSensorLogSQL   = `
		DELETE FROM sensor_log WHERE id NOT IN (
			SELECT id FROM sensor_log ORDER BY received_at DESC, id DESC LIMIT ?
		)
	`
	selectSensorLogSQL = `SELECT id, received_at, topic, payload FROM sensor_log ORDER BY received_at DESC, id DESC`
	clearSensorLogSQL  = `DELETE FROM sensor_log`
)

type SensorLogSQL struct {
	db      *sql.DB
	dialect Dialect
}

func NewSensorLogSQL(db *sql.DB, dialect Dialect) *SensorLogSQL {
	return &SensorLogSQL{db: db, dialect: dialect}
}

// Append inserts e. Empty ID and zero Date are filled in.
func (r *SensorLogSQL) Append(ctx context.Context, e models.SensorLogEntry, keep int) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Date.IsZero() {
		e.Date = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sensor log transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(insertSensorLogSQL),
		e.ID, e.Date.UTC(), e.MQTTTopic, e.MQTTPayload); err != nil {
		return fmt.Errorf("append sensor log: %w", err)
	}
	if keep > 0 {
		if _, err := tx.ExecContext(ctx, r.dialect.Rebind(trimSensorLogSQL), keep); err != nil {
			return fmt.Errorf("trim sensor log: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sensor log: %w", err)
	}
	return nil
}

func (r *SensorLogSQL) List(ctx context.Context, limit int) ([]models.SensorLogEntry, error) {
	q := selectSensorLogSQL
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list sensor log: %w", err)
	}
	defer rows.Close()

	out := make([]models.SensorLogEntry, 0, 64)
	for rows.Next() {
		var e models.SensorLogEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.MQTTTopic, &e.MQTTPayload); err != nil {
			return nil, fmt.Errorf("scan sensor log: %w", err)
		}
		e.Date = e.Date.Local()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sensor log: %w", err)
	}
	return out, nil
}

func (r *SensorLogSQL) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, clearSensorLogSQL); err != nil {
		return fmt.Errorf("clear sensor log: %w", err)
	}
	return nil
}
