package repository

import (
	"context"
	"database/sql"
	"time"

	"solarwatch/internal/models"
)

// AlertRepo is the append-only log of alert dispatch attempts.
type AlertRepo interface {
	Append(ctx context.Context, e models.AlertEvent) error
	List(ctx context.Context, from, to time.Time, faultType string) ([]models.AlertEvent, error)
}

// ConfigRepo persists the alert-channel configuration (single row).
type ConfigRepo interface {
	Save(ctx context.Context, c models.AlertConfig) error
	Load(ctx context.Context) (models.AlertConfig, error)
}

type Repository struct {
	Alerts AlertRepo
	Config ConfigRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Alerts: NewAlertSQLite(db),
		Config: NewConfigSQLite(db),
	}
}
