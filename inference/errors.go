package inference

import (
	"errors"
)

// Kind is the stable classification of a pipeline failure.
type Kind string

const (
	KindUnknown          Kind = "unknown"
	KindModelUnavailable Kind = "model_unavailable"
	KindInvalidRecord    Kind = "invalid_record"
	KindInferenceFailed  Kind = "inference_failed"
)

var (
	// ErrModelUnavailable: the store has no loaded model.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrInvalidRecord: a record field violates its type or domain constraint.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrInferenceFailed: encoding, alignment or the classifier failed.
	ErrInferenceFailed = errors.New("inference failed")
)

// Error tags a cause with its Kind. errors.Is matches both the Kind's
// sentinel and the wrapped cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	sentinel := e.sentinel()
	if e.Err == nil {
		return sentinel.Error()
	}
	return sentinel.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.sentinel()}
	}
	return []error{e.sentinel(), e.Err}
}

// Message is the human-readable cause without the kind prefix.
func (e *Error) Message() string {
	if e.Err == nil {
		return e.sentinel().Error()
	}
	return e.Err.Error()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindModelUnavailable:
		return ErrModelUnavailable
	case KindInvalidRecord:
		return ErrInvalidRecord
	default:
		return ErrInferenceFailed
	}
}

// Classify maps err onto a Kind by its sentinel.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrModelUnavailable):
		return KindModelUnavailable
	case errors.Is(err, ErrInvalidRecord):
		return KindInvalidRecord
	case errors.Is(err, ErrInferenceFailed):
		return KindInferenceFailed
	default:
		return KindUnknown
	}
}

func unavailable() error {
	return &Error{Kind: KindModelUnavailable}
}

func invalid(err error) error {
	return &Error{Kind: KindInvalidRecord, Err: err}
}

func failed(err error) error {
	return &Error{Kind: KindInferenceFailed, Err: err}
}
