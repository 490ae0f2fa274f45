package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

type LogisticRegression struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

func (lr *LogisticRegression) Predict(features []float64) (int, error) {
	p1, err := lr.probability(features)
	if err != nil {
		return 0, err
	}
	return labelFor(p1), nil
}

func (lr *LogisticRegression) PredictProba(features []float64) ([]float64, error) {
	p1, err := lr.probability(features)
	if err != nil {
		return nil, err
	}
	return []float64{1 - p1, p1}, nil
}

func (lr *LogisticRegression) NumFeatures() int {
	return len(lr.Coefficients)
}

func (lr *LogisticRegression) probability(features []float64) (float64, error) {
	if len(lr.Coefficients) == 0 {
		return 0, errors.New("model not loaded")
	}
	if len(features) != len(lr.Coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(lr.Coefficients), len(features))
	}
	z := lr.Intercept
	for i, w := range lr.Coefficients {
		z += w * features[i]
	}
	if math.IsNaN(z) {
		return 0, errors.New("decision value is NaN")
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func (lr *LogisticRegression) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var loaded LogisticRegression
	if err := json.Unmarshal(payload, &loaded); err != nil {
		return fmt.Errorf("decode logistic regression %s: %w", path, err)
	}
	if len(loaded.Coefficients) == 0 {
		return fmt.Errorf("logistic regression %s has no coefficients", path)
	}
	for i, w := range loaded.Coefficients {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	*lr = loaded
	return nil
}
