package inference

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"cardiocheck/ml"
)

// StoreConfig locates the model artifacts.
type StoreConfig struct {
	ModelType    string
	ModelPath    string
	FeaturesPath string
}

// LoadEvent describes one load attempt.
type LoadEvent struct {
	Generation    uint64
	ModelType     string
	ModelPath     string
	FeaturesPath  string
	SchemaVersion string
	Features      int
	Success       bool
	Error         string
	StartedAt     time.Time
	Duration      time.Duration
}

// LoadRecorder persists load attempts.
type LoadRecorder interface {
	RecordModelLoad(ctx context.Context, event LoadEvent) error
}

// Status is the externally visible state of the store.
type Status struct {
	Ready         bool       `json:"ready"`
	Generation    uint64     `json:"generation"`
	ModelType     string     `json:"model_type"`
	SchemaVersion string     `json:"schema_version,omitempty"`
	Features      int        `json:"features"`
	LoadedAt      *time.Time `json:"loaded_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	LastAttempt   *time.Time `json:"last_attempt,omitempty"`
}

// Store owns the loaded model. Loads are serialized; readers go through an
// atomic pointer and never block.
type Store struct {
	config   StoreConfig
	logger   *zap.Logger
	recorder LoadRecorder

	loadMu     sync.Mutex
	generation uint64
	current    atomic.Pointer[Model]

	stateMu     sync.RWMutex
	lastError   string
	lastAttempt time.Time
}

type StoreOption func(*Store)

func WithStoreLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithLoadRecorder(recorder LoadRecorder) StoreOption {
	return func(s *Store) { s.recorder = recorder }
}

func NewStore(config StoreConfig, opts ...StoreOption) *Store {
	s := &Store{config: config, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads both artifacts. On failure the store is left unloaded
// and the error is recorded and returned; the caller keeps running.
func (s *Store) Initialize(ctx context.Context) error {
	return s.load(ctx, false)
}

// Reload replaces the model with a fresh load from disk. On failure the
// previous model, if any, keeps serving.
func (s *Store) Reload(ctx context.Context) error {
	return s.load(ctx, true)
}

func (s *Store) IsReady() bool {
	return s.current.Load() != nil
}

func (s *Store) Model() *Model {
	return s.current.Load()
}

func (s *Store) Status() Status {
	status := Status{ModelType: s.config.ModelType}
	if m := s.current.Load(); m != nil {
		loadedAt := m.LoadedAt
		status.Ready = true
		status.Generation = m.Generation
		status.SchemaVersion = m.Schema.Version()
		status.Features = m.Schema.Width()
		status.LoadedAt = &loadedAt
	}
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	status.LastError = s.lastError
	if !s.lastAttempt.IsZero() {
		attempt := s.lastAttempt
		status.LastAttempt = &attempt
	}
	return status
}

func (s *Store) load(ctx context.Context, keepPrevious bool) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	start := time.Now()
	event := LoadEvent{
		ModelType:    s.config.ModelType,
		ModelPath:    s.config.ModelPath,
		FeaturesPath: s.config.FeaturesPath,
		StartedAt:    start,
	}

	model, err := s.build()
	event.Duration = time.Since(start)
	if err != nil {
		if !keepPrevious {
			s.current.Store(nil)
		}
		event.Error = err.Error()
		if prev := s.current.Load(); prev != nil {
			event.Generation = prev.Generation
		}
		s.setState(err.Error(), start)
		s.logger.Error("model load failed",
			zap.String("model_path", s.config.ModelPath),
			zap.String("features_path", s.config.FeaturesPath),
			zap.Bool("serving_previous", s.current.Load() != nil),
			zap.Error(err))
		s.record(ctx, event)
		return err
	}

	s.generation++
	model.Generation = s.generation
	s.current.Store(model)
	s.setState("", start)

	event.Generation = model.Generation
	event.SchemaVersion = model.Schema.Version()
	event.Features = model.Schema.Width()
	event.Success = true
	s.logger.Info("model loaded",
		zap.Uint64("generation", model.Generation),
		zap.String("model_type", s.config.ModelType),
		zap.String("schema_version", model.Schema.Version()),
		zap.Int("features", model.Schema.Width()),
		zap.Bool("explicit_vocabulary", model.Schema.ExplicitVocabulary()),
		zap.Duration("took", event.Duration))
	s.record(ctx, event)
	return nil
}

func (s *Store) build() (*Model, error) {
	classifier, err := ml.LoadModel(s.config.ModelType, s.config.ModelPath)
	if err != nil {
		return nil, err
	}
	schema, err := ml.LoadFeatureSchema(s.config.FeaturesPath, CategoricalFields)
	if err != nil {
		return nil, err
	}
	return NewModel(classifier, schema)
}

func (s *Store) setState(lastError string, attempt time.Time) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.lastError = lastError
	s.lastAttempt = attempt
}

func (s *Store) record(ctx context.Context, event LoadEvent) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordModelLoad(ctx, event); err != nil {
		s.logger.Warn("failed to record model load", zap.Error(err))
	}
}
