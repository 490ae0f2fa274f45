package inference

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	cause := errors.New("bad shape")
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, KindUnknown},
		{errors.New("other"), KindUnknown},
		{unavailable(), KindModelUnavailable},
		{invalid(cause), KindInvalidRecord},
		{failed(cause), KindInferenceFailed},
		{fmt.Errorf("wrapped: %w", failed(cause)), KindInferenceFailed},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := failed(errors.New("bad shape"))
	if err.Error() != "inference failed: bad shape" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	var perr *Error
	if !errors.As(err, &perr) || perr.Message() != "bad shape" {
		t.Fatalf("unexpected cause message: %v", err)
	}
	if unavailable().Error() != "model unavailable" {
		t.Fatalf("unexpected message %q", unavailable().Error())
	}
}

func TestNewPredictionResult(t *testing.T) {
	got, err := NewPredictionResult(1, 0.734249)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Label != LabelHighRisk || got.Probability != "73.42%" {
		t.Fatalf("unexpected result %+v", got)
	}
	got, err = NewPredictionResult(0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Label != LabelLowRisk || got.Probability != "0.00%" {
		t.Fatalf("unexpected result %+v", got)
	}
	if _, err := NewPredictionResult(2, 0.5); err == nil {
		t.Fatal("expected error for unknown class")
	}
	if _, err := NewPredictionResult(1, -0.1); err == nil {
		t.Fatal("expected error for negative probability")
	}
}
