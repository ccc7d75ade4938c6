package repository

import (
	"context"
	"database/sql"
	"errors"

	"water_tank/internal/models"
)

var ErrTankNotFound = errors.New("tank not found")

type TankRepo interface {
	List(ctx context.Context) ([]models.Tank, error)
	Get(ctx context.Context, id string) (models.Tank, error)
	Save(ctx context.Context, t models.Tank) error
	Delete(ctx context.Context, id string) error
	SetOrder(ctx context.Context, ids []string) error
}

type SettingsRepo interface {
	// Load reports found=false when nothing has been saved yet.
	Load(ctx context.Context) (s models.Settings, found bool, err error)
	Save(ctx context.Context, s models.Settings) error
}

type SensorLogRepo interface {
	// Append stores e and keeps only the newest keep entries (keep <= 0 disables trimming).
	Append(ctx context.Context, e models.SensorLogEntry, keep int) error
	// List returns up to limit entries, newest first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]models.SensorLogEntry, error)
	Clear(ctx context.Context) error
}

type Repository struct {
	Tanks     TankRepo
	Settings  SettingsRepo
	SensorLog SensorLogRepo
}

func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{
		Tanks:     NewTankSQL(db, dialect),
		Settings:  NewSettingsSQL(db, dialect),
		SensorLog: NewSensorLogSQL(db, dialect),
	}
}
