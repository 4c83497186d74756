package models

import "time"

// GatewayRecord is one element of a batched push from a field gateway.
// Field names follow the gateway firmware JSON exactly.
type GatewayRecord struct {
	SenderID           int     `json:"senderId"`
	LDRValue           int     `json:"ldrValue"`
	DHTTemp            float64 `json:"dhtTemp"`
	Humidity           float64 `json:"humidity"`
	ThermistorTemp     float64 `json:"thermistorTemp"`
	Voltage            float64 `json:"voltage"`
	Current            float64 `json:"current"`
	Valid              bool    `json:"valid"`
	GatewayTimestampMS int64   `json:"gateway_timestamp_ms"`
}

// Reading normalizes a gateway record into the canonical sample.
// LDR counts stand in for illuminance; the DHT probe is panel temperature.
func (g GatewayRecord) Reading() (Reading, error) {
	return NewReading(g.Voltage, g.Current, g.DHTTemp, float64(g.LDRValue), nil)
}

// AlertConfig is the persisted alert-channel configuration.
type AlertConfig struct {
	Destination string    `json:"destination"`
	Enabled     bool      `json:"enabled"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AlertEvent is one record of the alert dispatch log.
type AlertEvent struct {
	ID          string    `json:"id"`
	OccurredAt  time.Time `json:"occurred_at"`
	FaultType   string    `json:"fault_type"`
	Severity    string    `json:"severity"`
	Destination string    `json:"destination"`
	Delivered   bool      `json:"delivered"`
	Detail      string    `json:"detail,omitempty"`
}
