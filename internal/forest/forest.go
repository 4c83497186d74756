// Package forest evaluates an offline-trained random-forest classifier from
// its JSON export (standard-scaler parameters plus flattened decision trees).
// The model itself is fitted elsewhere; this package only runs inference.
package forest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// NumFeatures is the fixed width of the input vector:
// voltage, current, temperature, illuminance, efficiency, in that order.
const NumFeatures = 5

// leafMarker flags a leaf node in the flattened tree arrays.
const leafMarker = -2

var (
	ErrBadModel     = errors.New("forest: malformed model file")
	ErrFeatureWidth = errors.New("forest: feature vector width mismatch")
)

// Scaler holds per-feature standardization parameters.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Tree is one decision tree in flattened array form. Feature[i] == -2 marks a
// leaf, in which case Class[i] holds the vote.
type Tree struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int     `json:"children_left"`
	Right     []int     `json:"children_right"`
	Class     []int     `json:"class"`
}

// Model is a loaded forest ready for prediction.
type Model struct {
	Classes []string `json:"classes"`
	Scaler  Scaler   `json:"scaler"`
	Trees   []Tree   `json:"trees"`
}

// Load reads and validates a model export from disk.
func Load(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("forest: read model %q: %w", path, err)
	}
	var m Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("forest: decode model %q: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	if len(m.Classes) == 0 || len(m.Trees) == 0 {
		return fmt.Errorf("%w: empty classes or trees", ErrBadModel)
	}
	if len(m.Scaler.Mean) != NumFeatures || len(m.Scaler.Scale) != NumFeatures {
		return fmt.Errorf("%w: scaler expects %d features", ErrBadModel, NumFeatures)
	}
	for i, s := range m.Scaler.Scale {
		if s == 0 {
			return fmt.Errorf("%w: zero scale for feature %d", ErrBadModel, i)
		}
	}
	for ti, t := range m.Trees {
		n := len(t.Feature)
		if n == 0 || len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Class) != n {
			return fmt.Errorf("%w: tree %d has inconsistent node arrays", ErrBadModel, ti)
		}
		for i := 0; i < n; i++ {
			if t.Feature[i] == leafMarker {
				if t.Class[i] < 0 || t.Class[i] >= len(m.Classes) {
					return fmt.Errorf("%w: tree %d leaf %d votes for unknown class %d", ErrBadModel, ti, i, t.Class[i])
				}
				continue
			}
			if t.Feature[i] < 0 || t.Feature[i] >= NumFeatures {
				return fmt.Errorf("%w: tree %d node %d splits on feature %d", ErrBadModel, ti, i, t.Feature[i])
			}
			// Flattened exports place children after their parent; a backward
			// or self link would make walk spin.
			if t.Left[i] <= i || t.Left[i] >= n || t.Right[i] <= i || t.Right[i] >= n {
				return fmt.Errorf("%w: tree %d node %d child out of range", ErrBadModel, ti, i)
			}
		}
	}
	return nil
}

// Predict scales the raw feature vector, walks every tree, and returns the
// majority class index together with the full vote-share distribution.
func (m *Model) Predict(features []float64) (int, []float64, error) {
	if len(features) != NumFeatures {
		return 0, nil, fmt.Errorf("%w: got %d, want %d", ErrFeatureWidth, len(features), NumFeatures)
	}

	scaled := make([]float64, NumFeatures)
	for i, v := range features {
		scaled[i] = (v - m.Scaler.Mean[i]) / m.Scaler.Scale[i]
	}

	votes := make([]int, len(m.Classes))
	for _, t := range m.Trees {
		votes[t.walk(scaled)]++
	}

	best := 0
	proba := make([]float64, len(m.Classes))
	total := float64(len(m.Trees))
	for c, v := range votes {
		proba[c] = float64(v) / total
		if v > votes[best] {
			best = c
		}
	}
	return best, proba, nil
}

// walk descends from the root to a leaf and returns its class vote.
func (t Tree) walk(scaled []float64) int {
	i := 0
	for t.Feature[i] != leafMarker {
		if scaled[t.Feature[i]] <= t.Threshold[i] {
			i = t.Left[i]
		} else {
			i = t.Right[i]
		}
	}
	return t.Class[i]
}
