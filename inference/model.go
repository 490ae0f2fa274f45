package inference

import (
	"errors"
	"fmt"
	"time"

	"cardiocheck/ml"
)

// Model is an immutable handle on a loaded classifier and its feature
// schema. A reload produces a new Model; existing handles stay valid.
type Model struct {
	Classifier ml.Classifier
	Schema     *ml.FeatureSchema
	Generation uint64
	LoadedAt   time.Time
}

// NewModel checks that classifier and schema agree on the feature width.
func NewModel(classifier ml.Classifier, schema *ml.FeatureSchema) (*Model, error) {
	if classifier == nil {
		return nil, errors.New("classifier is nil")
	}
	if schema == nil {
		return nil, errors.New("feature schema is nil")
	}
	if n := classifier.NumFeatures(); n != 0 && n != schema.Width() {
		return nil, fmt.Errorf("classifier expects %d features, feature list has %d", n, schema.Width())
	}
	return &Model{Classifier: classifier, Schema: schema, LoadedAt: time.Now()}, nil
}

// ModelSource hands out the current model, or nil when none is loaded.
type ModelSource interface {
	Model() *Model
}

// StaticSource serves a fixed model.
type StaticSource struct {
	M *Model
}

func (s StaticSource) Model() *Model { return s.M }
