package models

import (
	"fmt"
	"math"
	"time"
)

// Panel and conversion constants used when deriving efficiency.
const (
	PanelAreaM2      = 1.6    // m², reference panel
	LuxToIrradiance  = 0.0079 // lux → W/m² approximation
	MaxEfficiencyPct = 25.0
)

// Reading is one normalized sensor sample. Immutable once built; construct
// through NewReading so efficiency derivation and range validation always run.
type Reading struct {
	Voltage     float64 `json:"voltage"`         // V
	Current     float64 `json:"current"`         // A
	Temperature float64 `json:"temperature"`     // °C
	Illuminance float64 `json:"light_intensity"` // lux
	Efficiency  float64 `json:"efficiency"`      // %, always populated
}

// NewReading validates raw channel values and builds a Reading.
// When efficiency is nil it is derived from the electrical channels.
func NewReading(voltage, current, temperature, illuminance float64, efficiency *float64) (Reading, error) {
	if voltage < 0 || current < 0 || illuminance < 0 {
		return Reading{}, fmt.Errorf("negative channel value: voltage=%.2f current=%.2f light=%.2f",
			voltage, current, illuminance)
	}
	if temperature < -60 || temperature > 150 {
		return Reading{}, fmt.Errorf("temperature %.2f out of plausible range", temperature)
	}

	eff := 0.0
	if efficiency != nil {
		eff = clampEfficiency(*efficiency)
	} else {
		eff = DeriveEfficiency(voltage, current, illuminance)
	}

	return Reading{
		Voltage:     round2(voltage),
		Current:     round2(current),
		Temperature: round2(temperature),
		Illuminance: round2(illuminance),
		Efficiency:  round2(eff),
	}, nil
}

// Power is the instantaneous output in watts.
func (r Reading) Power() float64 {
	return round2(r.Voltage * r.Current)
}

// DeriveEfficiency converts electrical output and illuminance into a panel
// efficiency percentage, clamped to the physically sensible [0, 25] band.
func DeriveEfficiency(voltage, current, illuminance float64) float64 {
	irradiance := illuminance * LuxToIrradiance
	solarInput := irradiance * PanelAreaM2
	if solarInput <= 0 {
		return 0
	}
	eff := (voltage * current) / solarInput * 100
	return round2(clampEfficiency(eff))
}

func clampEfficiency(eff float64) float64 {
	return math.Max(0, math.Min(MaxEfficiencyPct, eff))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Verdict is the classifier output plus derived metrics for one Reading.
// One Verdict per Reading, immutable, discarded after dispatch.
type Verdict struct {
	FaultType      string    `json:"fault_type"`
	FaultIndex     int       `json:"fault_index"`
	Confidence     float64   `json:"confidence"` // %, max class probability
	IsFault        bool      `json:"is_fault"`
	Power          float64   `json:"power"`      // W
	Efficiency     float64   `json:"efficiency"` // %
	Timestamp      time.Time `json:"timestamp"`
	Recommendation string    `json:"recommendation,omitempty"`
}
