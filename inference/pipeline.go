package inference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"cardiocheck/logging"
	"cardiocheck/ml"
)

// Pipeline turns patient records into predictions against the model handed
// out by its source. It keeps no per-request state and is safe for
// concurrent use.
type Pipeline struct {
	source    ModelSource
	logger    *zap.Logger
	strict    bool
	cacheSize int
	cache     *predictionCache
}

type PipelineOption func(*Pipeline)

func WithPipelineLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithStrictVocabulary rejects categorical values outside an explicit
// vocabulary as invalid records instead of encoding them as all zeros.
func WithStrictVocabulary(strict bool) PipelineOption {
	return func(p *Pipeline) { p.strict = strict }
}

// WithCache enables an LRU of the given size; size <= 0 disables it.
func WithCache(size int) PipelineOption {
	return func(p *Pipeline) { p.cacheSize = size }
}

func NewPipeline(source ModelSource, opts ...PipelineOption) (*Pipeline, error) {
	if source == nil {
		return nil, errors.New("model source is nil")
	}
	p := &Pipeline{source: source, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.cacheSize > 0 {
		cache, err := newPredictionCache(p.cacheSize)
		if err != nil {
			return nil, err
		}
		p.cache = cache
	}
	return p, nil
}

// Predict classifies one record. Errors are always *Error values tagged
// with a Kind.
func (p *Pipeline) Predict(ctx context.Context, record PatientRecord) (PredictionResult, error) {
	model := p.source.Model()
	if model == nil {
		return PredictionResult{}, unavailable()
	}
	if err := record.Validate(); err != nil {
		return PredictionResult{}, invalid(err)
	}
	if p.strict && model.Schema.ExplicitVocabulary() {
		if err := checkVocabulary(model.Schema, record); err != nil {
			return PredictionResult{}, invalid(err)
		}
	}

	if result, ok := p.cache.get(model.Generation, record); ok {
		return result, nil
	}
	result, err := p.infer(ctx, model, record)
	if err != nil {
		return PredictionResult{}, err
	}
	p.cache.add(model.Generation, record, result)
	return result, nil
}

func (p *Pipeline) infer(ctx context.Context, model *Model, record PatientRecord) (result PredictionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = failed(fmt.Errorf("panic: %v", r))
		}
	}()

	features, unknown := model.Schema.Expand(record.Numeric(), record.Categorical())
	if len(unknown) > 0 {
		logging.FromContext(ctx, p.logger).Warn("categorical values outside vocabulary",
			zap.Strings("fields", unknown),
			zap.Strings("dropped", model.Schema.Dropped(features)),
			zap.String("schema_version", model.Schema.Version()))
	}
	vector := model.Schema.Align(features)

	label, err := model.Classifier.Predict(vector.Values)
	if err != nil {
		return PredictionResult{}, failed(err)
	}
	proba, err := model.Classifier.PredictProba(vector.Values)
	if err != nil {
		return PredictionResult{}, failed(err)
	}
	if len(proba) != 2 {
		return PredictionResult{}, failed(fmt.Errorf("expected 2 class probabilities, got %d", len(proba)))
	}
	if math.IsNaN(proba[1]) {
		return PredictionResult{}, failed(errors.New("class 1 probability is NaN"))
	}
	result, err = NewPredictionResult(label, proba[1])
	if err != nil {
		return PredictionResult{}, failed(err)
	}
	return result, nil
}

func checkVocabulary(schema *ml.FeatureSchema, record PatientRecord) error {
	categorical := record.Categorical()
	var bad []string
	for _, field := range CategoricalFields {
		if _, ok := schema.Canonicalize(field, categorical[field]); !ok {
			bad = append(bad, fmt.Sprintf("%s=%q (allowed: %s)", field, categorical[field],
				strings.Join(schema.Categories(field), ", ")))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("unknown categorical values: %s", strings.Join(bad, "; "))
	}
	return nil
}
