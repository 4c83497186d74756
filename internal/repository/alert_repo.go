package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"solarwatch/internal/models"

	"github.com/google/uuid"
)

type AlertSQLite struct {
	db *sql.DB
}

func NewAlertSQLite(db *sql.DB) *AlertSQLite { return &AlertSQLite{db: db} }

const sqliteTimeLayout = "2006-01-02 15:04:05"

// Append inserts a dispatch-attempt record. Missing ID or OccurredAt are set.
func (r *AlertSQLite) Append(ctx context.Context, e models.AlertEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alert_log (id, occurred_at, fault_type, severity, destination, delivered, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.OccurredAt.Format(sqliteTimeLayout),
		strings.TrimSpace(e.FaultType),
		e.Severity,
		e.Destination,
		e.Delivered,
		e.Detail,
	)
	return err
}

// List returns dispatch attempts filtered by [from, to] (inclusive) and/or
// fault type, ordered by time ascending.
func (r *AlertSQLite) List(ctx context.Context, from, to time.Time, faultType string) ([]models.AlertEvent, error) {
	var (
		conds []string
		args  []any
	)

	// occurred_at is stored as sqliteTimeLayout text; the bounds must bind in
	// the same layout or the text comparison stops being chronological.
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimeLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimeLayout))
	}
	if faultType = strings.TrimSpace(faultType); faultType != "" {
		conds = append(conds, "fault_type = ?")
		args = append(args, faultType)
	}

	q := `SELECT id, occurred_at, fault_type, severity, destination, delivered, detail FROM alert_log`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.AlertEvent, 0, 32)
	for rows.Next() {
		var ev models.AlertEvent
		if err := rows.Scan(&ev.ID, &ev.OccurredAt, &ev.FaultType, &ev.Severity, &ev.Destination, &ev.Delivered, &ev.Detail); err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
