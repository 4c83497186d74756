package service

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"solarwatch/internal/models"
)

// Per-channel gaussian jitter added on top of the profile range draw.
const (
	jitterVoltage     = 0.5
	jitterCurrent     = 0.1
	jitterTemperature = 1.0
	jitterIlluminance = 20.0
	jitterEfficiency  = 0.5
)

// Simulator generates readings that statistically match a fault profile.
// Individual draws are not deterministic; only the band is.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator seeds the generator; seed 0 means "seed from the clock".
func NewSimulator(seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// Generate draws one reading for the given fault type. Unknown fault types
// fall back to the Normal profile.
func (s *Simulator) Generate(faultType int) models.Reading {
	profile, ok := models.FaultProfiles[faultType]
	if !ok {
		profile = models.FaultProfiles[models.FaultNormal]
	}

	s.mu.Lock()
	voltage := math.Max(0, s.draw(profile.Voltage, jitterVoltage))
	current := math.Max(0, s.draw(profile.Current, jitterCurrent))
	temperature := s.draw(profile.Temperature, jitterTemperature)
	illuminance := math.Max(0, s.draw(profile.Illuminance, jitterIlluminance))
	efficiency := math.Max(0, math.Min(models.MaxEfficiencyPct, s.draw(profile.Efficiency, jitterEfficiency)))
	s.mu.Unlock()

	r, err := models.NewReading(voltage, current, temperature, illuminance, &efficiency)
	if err != nil {
		// Profiles keep all channels in range; reaching this means a profile
		// table bug, so fall back to a flat Normal midpoint.
		r, _ = models.NewReading(19.5, 5, 35, 1000, nil)
	}
	return r
}

// draw samples uniformly from the band and adds gaussian jitter.
func (s *Simulator) draw(b models.Band, sigma float64) float64 {
	return b.Min + s.rng.Float64()*(b.Max-b.Min) + s.rng.NormFloat64()*sigma
}
