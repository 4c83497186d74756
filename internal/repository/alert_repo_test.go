package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"solarwatch/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestAlertAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	repo := NewAlertSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO alert_log (id, occurred_at, fault_type, severity, destination, delivered, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(),
			"Short_Circuit", "danger", "+15550001111", true, "sent",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Append(ctx(t), models.AlertEvent{
		// ID empty -> repo generates; OccurredAt zero -> repo sets UTC now.
		FaultType:   " Short_Circuit ",
		Severity:    "danger",
		Destination: "+15550001111",
		Delivered:   true,
		Detail:      "sent",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAlertAppend_DBError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	repo := NewAlertSQLite(db)

	mock.ExpectExec("INSERT INTO alert_log").
		WillReturnError(errors.New("down"))

	err = repo.Append(ctx(t), models.AlertEvent{FaultType: "Open_Circuit", Severity: "critical"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected db error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAlertList_NoFilters(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	repo := NewAlertSQLite(db)

	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "occurred_at", "fault_type", "severity", "destination", "delivered", "detail"}).
		AddRow("a1", at, "Partial_Shading", "warning", "+1555", true, "").
		AddRow("a2", at.Add(time.Minute), "Dust_Accumulation", "warning", "+1555", false, "publish timeout")

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, occurred_at, fault_type, severity, destination, delivered, detail FROM alert_log ORDER BY occurred_at ASC`,
	)).WillReturnRows(rows)

	got, err := repo.List(ctx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].ID != "a1" || got[0].FaultType != "Partial_Shading" || !got[0].Delivered {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
	if got[1].Delivered || got[1].Detail != "publish timeout" {
		t.Fatalf("unexpected second row: %+v", got[1])
	}
	if got[0].OccurredAt.Location() != time.UTC {
		t.Fatalf("occurred_at must be UTC, got %v", got[0].OccurredAt.Location())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAlertList_WithFilters(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	repo := NewAlertSQLite(db)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, occurred_at, fault_type, severity, destination, delivered, detail FROM alert_log WHERE occurred_at >= ? AND occurred_at <= ? AND fault_type = ? ORDER BY occurred_at ASC`,
	)).
		WithArgs("2026-08-01 00:00:00", "2026-08-02 00:00:00", "Short_Circuit").
		WillReturnRows(sqlmock.NewRows([]string{"id", "occurred_at", "fault_type", "severity", "destination", "delivered", "detail"}))

	got, err := repo.List(ctx(t), from, to, " Short_Circuit ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty result, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

// Time bounds must bind in the same text layout Append stores, or the
// occurred_at comparison degrades to mismatched-layout string ordering and
// same-day events silently drop out of the range.
func TestAlertList_BindsBoundsInStoredLayout(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	repo := NewAlertSQLite(db)

	// A zoned bound must land as its UTC instant in the stored layout.
	tashkent := time.FixedZone("UTC+5", 5*60*60)
	from := time.Date(2026, 8, 25, 16, 0, 0, 0, tashkent) // 11:00 UTC

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, occurred_at, fault_type, severity, destination, delivered, detail FROM alert_log WHERE occurred_at >= ? ORDER BY occurred_at ASC`,
	)).
		WithArgs("2026-08-25 11:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"id", "occurred_at", "fault_type", "severity", "destination", "delivered", "detail"}))

	if _, err := repo.List(ctx(t), from, time.Time{}, ""); err != nil {
		t.Fatalf("List: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
