// Package notifier abstracts the external alert channel. The channel is slow
// (tens of seconds end to end) and offers success/failure only; callers own
// rate limiting and never retry.
package notifier

import "solarwatch/internal/logger"

// Notifier delivers one plain-text alert body to a destination address.
type Notifier interface {
	Send(destination, body string) error
}

// LogOnly is the fallback channel when no broker is configured: it records
// the alert locally and reports success so the pipeline stays exercisable.
type LogOnly struct {
	log *logger.Logger
}

func NewLogOnly(log *logger.Logger) *LogOnly {
	return &LogOnly{log: log}
}

func (n *LogOnly) Send(destination, body string) error {
	if n.log != nil {
		n.log.Infow("alert_channel_log_only", "destination", destination, "bytes", len(body))
	}
	return nil
}
