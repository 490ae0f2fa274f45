package inference

import (
	"math"
	"strings"
	"testing"
)

func TestRecordValidate(t *testing.T) {
	if err := goldenRecord().Validate(); err != nil {
		t.Fatalf("golden record should be valid: %v", err)
	}

	cases := map[string]struct {
		mutate func(*PatientRecord)
		want   string
	}{
		"age too low":     {func(r *PatientRecord) { r.Age = 0 }, "age must be at least 1"},
		"age too high":    {func(r *PatientRecord) { r.Age = 130 }, "age must be at most 120"},
		"negative chol":   {func(r *PatientRecord) { r.Chol = -1 }, "chol must be at least 0"},
		"ca out of range": {func(r *PatientRecord) { r.CA = 9 }, "ca must be at most 4"},
		"missing sex":     {func(r *PatientRecord) { r.Sex = "" }, "sex is required"},
		"blank thal":      {func(r *PatientRecord) { r.Thal = "   " }, "thal must not be blank"},
		"infinite chol":   {func(r *PatientRecord) { r.Chol = math.Inf(1) }, "chol must be a finite number"},
		"nan oldpeak":     {func(r *PatientRecord) { r.Oldpeak = math.NaN() }, "oldpeak must be a finite number"},
	}
	for name, tc := range cases {
		record := goldenRecord()
		tc.mutate(&record)
		err := record.Validate()
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected %q in %q", name, tc.want, err.Error())
		}
	}
}

func TestRecordNegativeOldpeakIsValid(t *testing.T) {
	record := goldenRecord()
	record.Oldpeak = -1.1
	if err := record.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecordFieldMaps(t *testing.T) {
	record := goldenRecord()
	numeric := record.Numeric()
	for _, name := range NumericFields {
		if _, ok := numeric[name]; !ok {
			t.Errorf("numeric map misses %s", name)
		}
	}
	categorical := record.Categorical()
	for _, name := range CategoricalFields {
		if _, ok := categorical[name]; !ok {
			t.Errorf("categorical map misses %s", name)
		}
	}
	if numeric["age"] != 63 || categorical["thal"] != "fixed defect" {
		t.Fatalf("unexpected field values: %v %v", numeric, categorical)
	}
}
