package service

import (
	"context"
	"errors"
	"time"

	"solarwatch/internal/models"
	"solarwatch/internal/repository"
)

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// AlertLogService exposes the persisted dispatch history with filtering.
type AlertLogService struct {
	repo repository.AlertRepo
}

func NewAlertLogService(repo repository.AlertRepo) *AlertLogService {
	return &AlertLogService{repo: repo}
}

// List returns dispatch attempts matching the filter, oldest first.
func (s *AlertLogService) List(ctx context.Context, f LogFilter) ([]models.AlertEvent, error) {
	if s.repo == nil {
		return nil, nil
	}
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	return s.repo.List(ctx, from, to, f.FaultType)
}

// normalizeToUTC returns t in UTC, preserving zero values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
