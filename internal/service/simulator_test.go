package service

import (
	"math"
	"testing"

	"solarwatch/internal/models"
)

// jitter can push a draw slightly past its band; allow a few sigmas.
const bandSlack = 5.0

func TestSimulator_ReadingsTrackFaultProfile(t *testing.T) {
	t.Parallel()
	sim := NewSimulator(42)

	for faultType, profile := range models.FaultProfiles {
		for i := 0; i < 200; i++ {
			r := sim.Generate(faultType)

			if r.Voltage < 0 {
				t.Fatalf("%s: negative voltage %v", profile.Name, r.Voltage)
			}
			if r.Voltage > profile.Voltage.Max+bandSlack*jitterVoltage {
				t.Fatalf("%s: voltage %v far above band max %v", profile.Name, r.Voltage, profile.Voltage.Max)
			}
			if r.Current < 0 {
				t.Fatalf("%s: negative current %v", profile.Name, r.Current)
			}
			if r.Illuminance < 0 {
				t.Fatalf("%s: negative illuminance %v", profile.Name, r.Illuminance)
			}
			if r.Efficiency < 0 || r.Efficiency > models.MaxEfficiencyPct {
				t.Fatalf("%s: efficiency %v outside [0, 25]", profile.Name, r.Efficiency)
			}
		}
	}
}

func TestSimulator_RoundsToTwoDecimals(t *testing.T) {
	t.Parallel()
	sim := NewSimulator(7)

	for i := 0; i < 50; i++ {
		r := sim.Generate(models.FaultNormal)
		for name, v := range map[string]float64{
			"voltage":     r.Voltage,
			"current":     r.Current,
			"temperature": r.Temperature,
			"illuminance": r.Illuminance,
			"efficiency":  r.Efficiency,
		} {
			scaled := v * 100
			if math.Abs(scaled-math.Round(scaled)) > 1e-9 {
				t.Fatalf("%s %v not rounded to 2 decimals", name, v)
			}
		}
	}
}

func TestSimulator_UnknownFaultFallsBackToNormal(t *testing.T) {
	t.Parallel()
	sim := NewSimulator(99)

	normal := models.FaultProfiles[models.FaultNormal]
	for i := 0; i < 100; i++ {
		r := sim.Generate(42)
		if r.Voltage < normal.Voltage.Min-bandSlack*jitterVoltage ||
			r.Voltage > normal.Voltage.Max+bandSlack*jitterVoltage {
			t.Fatalf("fallback reading voltage %v outside Normal band", r.Voltage)
		}
	}
}

func TestSimulator_ShortCircuitLooksShorted(t *testing.T) {
	t.Parallel()
	sim := NewSimulator(1)

	// Statistical sanity: shorted panels draw high current at collapsed voltage.
	var sumV, sumI float64
	const n = 300
	for i := 0; i < n; i++ {
		r := sim.Generate(models.FaultShortCircuit)
		sumV += r.Voltage
		sumI += r.Current
	}
	if mean := sumV / n; mean > 5 {
		t.Fatalf("short-circuit mean voltage %v too high", mean)
	}
	if mean := sumI / n; mean < 5 {
		t.Fatalf("short-circuit mean current %v too low", mean)
	}
}
