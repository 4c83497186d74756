package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"solarwatch/internal/logger"
	"solarwatch/internal/metrics"
	"solarwatch/internal/models"
	"solarwatch/internal/notifier"
	"solarwatch/internal/repository"
)

// appendTimeout bounds the alert-log write done after a transmission.
const appendTimeout = 5 * time.Second

// Dispatcher hands approved alerts to the external channel. The channel takes
// tens of seconds per send, so a single-permit semaphore enforces global
// single-flight: a second request while one is in flight is dropped, not
// queued. Transmission runs on its own goroutine and is never cancelled by
// the session that triggered it.
type Dispatcher struct {
	notifier notifier.Notifier
	alertLog repository.AlertRepo // nil disables the dispatch log
	sem      *semaphore.Weighted
	log      *logger.Logger
}

func NewDispatcher(n notifier.Notifier, alertLog repository.AlertRepo, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: n,
		alertLog: alertLog,
		sem:      semaphore.NewWeighted(1),
		log:      log,
	}
}

// Dispatch attempts to send one alert. It returns false immediately when a
// transmission is already in flight; the caller never blocks either way.
func (d *Dispatcher) Dispatch(destination string, v models.Verdict, r models.Reading) bool {
	if !d.sem.TryAcquire(1) {
		metrics.AlertsDropped.Inc()
		if d.log != nil {
			d.log.Infow("alert_dropped_in_flight", "fault", v.FaultType)
		}
		return false
	}

	metrics.AlertsDispatched.Inc()
	body := formatAlertBody(v, r)
	go d.transmit(destination, v.FaultType, body)
	return true
}

// Busy reports whether a transmission is currently in flight.
func (d *Dispatcher) Busy() bool {
	if d.sem.TryAcquire(1) {
		d.sem.Release(1)
		return false
	}
	return true
}

// SendTest pushes a sample alert through the channel without touching any
// suppression state. ErrDispatchInProgress when the channel is busy.
func (d *Dispatcher) SendTest(destination string) error {
	if !d.sem.TryAcquire(1) {
		return ErrDispatchInProgress
	}
	go d.transmit(destination, "Test", formatTestBody(time.Now()))
	return nil
}

// transmit performs the blocking send and records the outcome. Failures are
// logged and never retried.
func (d *Dispatcher) transmit(destination, fault, body string) {
	defer d.sem.Release(1)

	err := d.notifier.Send(destination, body)
	if err != nil {
		metrics.AlertSendFailures.Inc()
		if d.log != nil {
			d.log.Errorw("alert_send_failed", "fault", fault, "err", err)
		}
	} else if d.log != nil {
		d.log.Infow("alert_sent", "fault", fault)
	}

	if d.alertLog == nil {
		return
	}
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()
	if appendErr := d.alertLog.Append(ctx, models.AlertEvent{
		FaultType:   fault,
		Severity:    models.RecommendationFor(fault).Severity,
		Destination: destination,
		Delivered:   err == nil,
		Detail:      detail,
	}); appendErr != nil && d.log != nil {
		d.log.Errorw("alert_log_append_failed", "err", appendErr)
	}
}

// formatAlertBody renders the human-readable alert: headline, readings, action.
func formatAlertBody(v models.Verdict, r models.Reading) string {
	rec := models.RecommendationFor(v.FaultType)
	return fmt.Sprintf(`SOLAR PANEL ALERT

%s

Readings:
- Voltage: %.2f V
- Current: %.2f A
- Temperature: %.2f C
- Light: %.2f lux
- Efficiency: %.2f%%

%s

Confidence: %.1f%% | %s`,
		rec.Message,
		r.Voltage, r.Current, r.Temperature, r.Illuminance, r.Efficiency,
		rec.Action,
		v.Confidence, v.Timestamp.Format("15:04:05"),
	)
}

func formatTestBody(at time.Time) string {
	return fmt.Sprintf(`TEST MESSAGE

Solar panel monitoring is active and the alert channel is reachable.

Sent at %s`, at.Format("15:04:05"))
}
