package ml

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLogisticRegressionProbability(t *testing.T) {
	model := &LogisticRegression{Coefficients: []float64{1, -1}, Intercept: 0.5}
	proba, err := model.PredictProba([]float64{2, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 1 / (1 + math.Exp(-1.5))
	if math.Abs(proba[1]-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, proba[1])
	}
	if math.Abs(proba[0]+proba[1]-1) > 1e-12 {
		t.Fatalf("probabilities do not sum to 1: %v", proba)
	}
	label, err := model.Predict([]float64{2, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}

func TestLogisticRegressionTieIsClassZero(t *testing.T) {
	model := &LogisticRegression{Coefficients: []float64{0, 0}}
	proba, err := model.PredictProba([]float64{3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proba[1] != 0.5 {
		t.Fatalf("expected 0.5, got %v", proba[1])
	}
	label, err := model.Predict([]float64{3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected tie to resolve to 0, got %d", label)
	}
}

func TestLogisticRegressionExtremeInputs(t *testing.T) {
	model := &LogisticRegression{Coefficients: []float64{1}}
	for _, x := range []float64{-1000, 1000} {
		proba, err := model.PredictProba([]float64{x})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.IsNaN(proba[1]) || proba[1] < 0 || proba[1] > 1 {
			t.Fatalf("probability out of range for %v: %v", x, proba[1])
		}
	}
}

func TestLogisticRegressionWidthMismatch(t *testing.T) {
	model := &LogisticRegression{Coefficients: []float64{1, 2, 3}}
	if _, err := model.Predict([]float64{1, 2}); err == nil {
		t.Fatal("expected width mismatch error")
	}
	if model.NumFeatures() != 3 {
		t.Fatalf("expected 3 features, got %d", model.NumFeatures())
	}
}

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "lr.json")
	if err := os.WriteFile(good, []byte(`{"coefficients":[0.5,0.25],"intercept":-1}`), 0o600); err != nil {
		t.Fatal(err)
	}
	model, err := LoadModel(ModelTypeLogisticRegression, good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.NumFeatures() != 2 {
		t.Fatalf("expected 2 features, got %d", model.NumFeatures())
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte(`{"coefficients":`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadModel(ModelTypeLogisticRegression, corrupt); err == nil {
		t.Fatal("expected error for corrupt artifact")
	}
	if _, err := LoadModel(ModelTypeLogisticRegression, filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing artifact")
	}
	if _, err := LoadModel("svm", good); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
