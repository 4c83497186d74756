package service

import (
	"context"
	"strings"
	"sync"

	"solarwatch/internal/logger"
	"solarwatch/internal/models"
	"solarwatch/internal/repository"
)

// AlertService owns the alert-channel configuration (destination + enabled)
// and fronts the shared suppressor and dispatcher for status reporting.
type AlertService struct {
	mu          sync.Mutex
	destination string
	enabled     bool

	supp *Suppressor
	disp *Dispatcher
	cfg  repository.ConfigRepo // nil disables persistence
	log  *logger.Logger
}

func NewAlertService(supp *Suppressor, disp *Dispatcher, cfg repository.ConfigRepo, log *logger.Logger) *AlertService {
	return &AlertService{supp: supp, disp: disp, cfg: cfg, log: log}
}

// LoadPersisted restores the configuration saved by a previous run.
func (a *AlertService) LoadPersisted(ctx context.Context) error {
	if a.cfg == nil {
		return nil
	}
	c, err := a.cfg.Load(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.destination = c.Destination
	a.enabled = c.Enabled
	a.mu.Unlock()
	return nil
}

// Configure normalizes and stores the destination, clears the suppression
// memory, and persists the new configuration. Returns the stored destination.
func (a *AlertService) Configure(ctx context.Context, destination string, enabled bool) (string, error) {
	norm := NormalizeDestination(destination)

	a.mu.Lock()
	a.destination = norm
	a.enabled = enabled
	a.mu.Unlock()

	a.supp.Reset()

	if a.cfg != nil {
		if err := a.cfg.Save(ctx, models.AlertConfig{Destination: norm, Enabled: enabled}); err != nil {
			return norm, err
		}
	}
	return norm, nil
}

// Snapshot returns the current destination and enabled flag.
func (a *AlertService) Snapshot() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.destination, a.enabled
}

// Status reports the observable channel state with a masked destination.
func (a *AlertService) Status() AlertStatus {
	dest, enabled := a.Snapshot()
	lastFault, lastAt := a.supp.Last()

	st := AlertStatus{
		Enabled:           enabled,
		Configured:        dest != "",
		Destination:       maskDestination(dest),
		LastNotifiedFault: lastFault,
		Busy:              a.disp.Busy(),
	}
	if !lastAt.IsZero() {
		at := lastAt
		st.LastNotifiedAt = &at
	}
	return st
}

// SendTest pushes a sample message through the channel. It never touches the
// cooldown memory, so real notifications are unaffected.
func (a *AlertService) SendTest() error {
	dest, _ := a.Snapshot()
	if dest == "" {
		return ErrAlertsNotConfigured
	}
	return a.disp.SendTest(dest)
}

// ResetCooldown clears the last-notified memory.
func (a *AlertService) ResetCooldown() {
	a.supp.Reset()
}

// NormalizeDestination strips spaces and dashes and ensures a leading "+".
func NormalizeDestination(dest string) string {
	dest = strings.NewReplacer(" ", "", "-", "").Replace(dest)
	if dest != "" && !strings.HasPrefix(dest, "+") {
		dest = "+" + dest
	}
	return dest
}

func maskDestination(dest string) string {
	if dest == "" {
		return ""
	}
	if len(dest) < 8 {
		return strings.Repeat("*", len(dest))
	}
	return dest[:4] + "****" + dest[len(dest)-4:]
}
