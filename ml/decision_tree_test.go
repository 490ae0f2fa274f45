package ml

import (
	"os"
	"path/filepath"
	"testing"
)

func sampleTree(t *testing.T) *DecisionTree {
	t.Helper()
	model, err := NewDecisionTree([]TreeNode{
		{FeatureIdx: 0, Threshold: 0.5, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, ClassLabel: 0, Probability: 0.2},
		{FeatureIdx: 1, Threshold: 10, LeftChild: 3, RightChild: 4},
		{IsLeaf: true, ClassLabel: 0, Probability: 0.5},
		{IsLeaf: true, ClassLabel: 1, Probability: 0.9},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return model
}

func TestDecisionTreePredict(t *testing.T) {
	model := sampleTree(t)

	label, err := model.Predict([]float64{0.1, 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}

	proba, err := model.PredictProba([]float64{0.9, 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proba[1] != 0.9 || proba[0] < 0.0999 || proba[0] > 0.1001 {
		t.Fatalf("unexpected probabilities: %v", proba)
	}
	label, err = model.Predict([]float64{0.9, 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}

func TestDecisionTreeTieIsClassZero(t *testing.T) {
	model := sampleTree(t)
	label, err := model.Predict([]float64{0.9, 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected a 0.5 leaf to resolve to 0, got %d", label)
	}
}

func TestDecisionTreeShortInput(t *testing.T) {
	model := sampleTree(t)
	if _, err := model.Predict([]float64{0.9}); err == nil {
		t.Fatal("expected error for input narrower than the tree")
	}
}

func TestDecisionTreeRejectsBadNodes(t *testing.T) {
	cases := map[string][]TreeNode{
		"empty":      nil,
		"cycle":      {{FeatureIdx: 0, LeftChild: 0, RightChild: 1}, {IsLeaf: true}},
		"dangling":   {{FeatureIdx: 0, LeftChild: 1, RightChild: 5}, {IsLeaf: true}},
		"bad proba":  {{IsLeaf: true, Probability: 1.5}},
		"label high": {{IsLeaf: true, ClassLabel: 1, Probability: 0.3}},
		"label tie":  {{IsLeaf: true, ClassLabel: 1, Probability: 0.5}},
		"label low":  {{IsLeaf: true, ClassLabel: 0, Probability: 0.7}},
	}
	for name, nodes := range cases {
		if _, err := NewDecisionTree(nodes); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestDecisionTreeLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	payload := `[{"feature_idx":0,"threshold":1,"left_child":1,"right_child":2},
{"is_leaf":true,"probability":0.1},{"is_leaf":true,"class_label":1,"probability":0.8}]`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}
	model, err := LoadModel(ModelTypeDecisionTree, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proba, err := model.PredictProba([]float64{2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proba[1] != 0.8 {
		t.Fatalf("expected 0.8, got %v", proba[1])
	}
}
