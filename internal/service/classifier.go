package service

import (
	"fmt"
	"math"
	"time"

	"solarwatch/internal/forest"
	"solarwatch/internal/models"
)

// ClassifierService is the synchronous gateway to the offline-trained model.
type ClassifierService struct {
	model *forest.Model
}

// NewClassifierService wraps a loaded model; nil means the model artifact was
// absent at startup and every Classify call fails with ErrModelUnavailable.
func NewClassifierService(model *forest.Model) *ClassifierService {
	return &ClassifierService{model: model}
}

// Loaded reports whether the offline model is available.
func (c *ClassifierService) Loaded() bool {
	return c.model != nil
}

// Classify builds the feature vector in the contract order (voltage, current,
// temperature, illuminance, efficiency), runs the forest, and maps the class
// through the closed fault set. Confidence is the winning vote share as a
// percentage.
func (c *ClassifierService) Classify(r models.Reading) (models.Verdict, error) {
	if c.model == nil {
		return models.Verdict{}, ErrModelUnavailable
	}

	features := []float64{r.Voltage, r.Current, r.Temperature, r.Illuminance, r.Efficiency}
	classIdx, proba, err := c.model.Predict(features)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("classify reading: %w", err)
	}

	label := c.model.Classes[classIdx]
	rec := models.RecommendationFor(label)

	return models.Verdict{
		FaultType:      label,
		FaultIndex:     models.FaultIndex(label),
		Confidence:     math.Round(proba[classIdx]*10000) / 100,
		IsFault:        label != models.FaultNameNormal,
		Power:          r.Power(),
		Efficiency:     r.Efficiency,
		Timestamp:      time.Now().UTC(),
		Recommendation: rec.Action,
	}, nil
}
