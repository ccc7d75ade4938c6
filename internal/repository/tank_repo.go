package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"water_tank/internal/models"
)

const (
	selectTanksSQL = `SELECT id, data FROM tanks ORDER BY sort_order ASC, id ASC`
	selectTankSQL  = `SELECT id, data FROM tanks WHERE id = ?`
	upsertTankSQL  = `
		INSERT INTO tanks (id, sort_order, data)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sort_order=excluded.sort_order,
			data=excluded.data
	`
	deleteTankSQL  = `DELETE FROM tanks WHERE id = ?`
	updateOrderSQL = `UPDATE tanks SET sort_order = ?, data = ? WHERE id = ?`
)

// TankSQL keeps each tank as a JSON document next to its sort key.
type TankSQL struct {
	db      *sql.DB
	dialect Dialect
}

func NewTankSQL(db *sql.DB, dialect Dialect) *TankSQL {
	return &TankSQL{db: db, dialect: dialect}
}

func (r *TankSQL) List(ctx context.Context) ([]models.Tank, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(selectTanksSQL))
	if err != nil {
		return nil, fmt.Errorf("list tanks: %w", err)
	}
	defer rows.Close()

	out := make([]models.Tank, 0, 16)
	for rows.Next() {
		t, err := scanTank(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tanks: %w", err)
	}
	return out, nil
}

func (r *TankSQL) Get(ctx context.Context, id string) (models.Tank, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(selectTankSQL), id)
	t, err := scanTank(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tank{}, ErrTankNotFound
	}
	return t, err
}

func (r *TankSQL) Save(ctx context.Context, t models.Tank) error {
	if t.ID == "" {
		return errors.New("save tank: empty id")
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode tank %s: %w", t.ID, err)
	}
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(upsertTankSQL), t.ID, t.Order, string(data)); err != nil {
		return fmt.Errorf("save tank %s: %w", t.ID, err)
	}
	return nil
}

func (r *TankSQL) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(deleteTankSQL), id)
	if err != nil {
		return fmt.Errorf("delete tank %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tank %s: %w", id, err)
	}
	if n == 0 {
		return ErrTankNotFound
	}
	return nil
}

// SetOrder assigns order = position in ids, in one transaction.
// Every id must exist; tanks not listed keep their order.
func (r *TankSQL) SetOrder(ctx context.Context, ids []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for pos, id := range ids {
		t, err := scanTank(tx.QueryRowContext(ctx, r.dialect.Rebind(selectTankSQL), id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("order tank %s: %w", id, ErrTankNotFound)
		}
		if err != nil {
			return err
		}
		t.Order = pos
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode tank %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, r.dialect.Rebind(updateOrderSQL), pos, string(data), id); err != nil {
			return fmt.Errorf("order tank %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTank(s rowScanner) (models.Tank, error) {
	var (
		id   string
		data string
	)
	if err := s.Scan(&id, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Tank{}, err
		}
		return models.Tank{}, fmt.Errorf("scan tank: %w", err)
	}
	var t models.Tank
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return models.Tank{}, fmt.Errorf("decode tank %s: %w", id, err)
	}
	t.ID = id
	return t, nil
}
