package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"solarwatch/internal/models"
)

type ConfigSQLite struct {
	db *sql.DB
}

func NewConfigSQLite(db *sql.DB) *ConfigSQLite { return &ConfigSQLite{db: db} }

// The alert config is a single row with a fixed id.
const alertConfigRowID = 1

const upsertAlertConfigSQL = `
	INSERT INTO alert_config (id, destination, enabled, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		destination=excluded.destination,
		enabled=excluded.enabled,
		updated_at=excluded.updated_at
`

const selectAlertConfigSQL = `
	SELECT destination, enabled, updated_at FROM alert_config WHERE id=?
`

// Save upserts the alert configuration row.
func (r *ConfigSQLite) Save(ctx context.Context, c models.AlertConfig) error {
	ts := c.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}
	_, err := r.db.ExecContext(ctx, upsertAlertConfigSQL,
		alertConfigRowID, c.Destination, c.Enabled, ts)
	return err
}

// Load fetches the alert configuration. A missing row yields a zero config,
// not an error.
func (r *ConfigSQLite) Load(ctx context.Context) (models.AlertConfig, error) {
	row := r.db.QueryRowContext(ctx, selectAlertConfigSQL, alertConfigRowID)

	var c models.AlertConfig
	if err := row.Scan(&c.Destination, &c.Enabled, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AlertConfig{}, nil
		}
		return models.AlertConfig{}, err
	}
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}
