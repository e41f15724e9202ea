// Package ml loads the trained timeline regression artifact. The artifact
// is a JSON export of a linear fit over campaign progress features; its
// absence is a normal state and the predictor falls back to the linear
// velocity estimate.
package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

// Features are the model inputs, in the order they were trained.
type Features struct {
	TotalCases    float64
	FinishedCases float64
	DaysElapsed   float64
	Velocity      float64
}

// Model is a linear regression over the four progress features. It predicts
// the number of days remaining until campaign completion.
type Model struct {
	FeatureNames []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// Load reads a regression artifact from disk. Callers should treat a missing
// file as a degraded-but-healthy state, not an error worth failing startup on.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}

	if len(m.Coefficients) != 4 {
		return nil, fmt.Errorf("model artifact has %d coefficients, want 4", len(m.Coefficients))
	}

	return &m, nil
}

// Predict returns the estimated days remaining. Negative predictions are
// clamped to zero; the fit can dip below zero near completion.
func (m *Model) Predict(f Features) float64 {
	inputs := [4]float64{f.TotalCases, f.FinishedCases, f.DaysElapsed, f.Velocity}

	prediction := m.Intercept
	for i, c := range m.Coefficients {
		prediction += c * inputs[i]
	}

	if prediction < 0 {
		return 0
	}
	return prediction
}
