package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type DecisionTree struct {
	nodes []TreeNode
	width int
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	// ClassLabel must agree with Probability under the 0.5 decision rule.
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
	// Probability is the class-1 share of the training samples at a leaf.
	Probability float64 `json:"probability"`
}

func NewDecisionTree(nodes []TreeNode) (*DecisionTree, error) {
	dt := &DecisionTree{}
	if err := dt.setNodes(nodes); err != nil {
		return nil, err
	}
	return dt, nil
}

func (dt *DecisionTree) Predict(features []float64) (int, error) {
	p1, err := dt.leafProbability(features)
	if err != nil {
		return 0, err
	}
	return labelFor(p1), nil
}

func (dt *DecisionTree) PredictProba(features []float64) ([]float64, error) {
	p1, err := dt.leafProbability(features)
	if err != nil {
		return nil, err
	}
	return []float64{1 - p1, p1}, nil
}

// NumFeatures returns 0: a tree does not record the width it was trained on.
// Inputs only need to cover the highest split index.
func (dt *DecisionTree) NumFeatures() int {
	return 0
}

func (dt *DecisionTree) leafProbability(features []float64) (float64, error) {
	if len(dt.nodes) == 0 {
		return 0, errors.New("model not loaded")
	}
	if len(features) < dt.width {
		return 0, fmt.Errorf("expected at least %d features, got %d", dt.width, len(features))
	}
	idx := 0
	for steps := 0; steps <= len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.Probability, nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
	return 0, errors.New("invalid tree state")
}

func (dt *DecisionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var nodes []TreeNode
	if err := json.Unmarshal(payload, &nodes); err != nil {
		return fmt.Errorf("decode decision tree %s: %w", path, err)
	}
	return dt.setNodes(nodes)
}

func (dt *DecisionTree) setNodes(nodes []TreeNode) error {
	if len(nodes) == 0 {
		return errors.New("decision tree has no nodes")
	}
	width := 0
	for i, node := range nodes {
		if node.IsLeaf {
			if node.Probability < 0 || node.Probability > 1 {
				return fmt.Errorf("node %d: leaf probability %v out of range", i, node.Probability)
			}
			if node.ClassLabel != labelFor(node.Probability) {
				return fmt.Errorf("node %d: class_label %d disagrees with probability %v", i, node.ClassLabel, node.Probability)
			}
			continue
		}
		if node.FeatureIdx < 0 {
			return fmt.Errorf("node %d: negative feature index", i)
		}
		if node.LeftChild <= i || node.LeftChild >= len(nodes) || node.RightChild <= i || node.RightChild >= len(nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
		if node.FeatureIdx+1 > width {
			width = node.FeatureIdx + 1
		}
	}
	dt.nodes = nodes
	dt.width = width
	return nil
}
