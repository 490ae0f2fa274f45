package ml

import (
	"reflect"
	"testing"
)

func testSchema(t *testing.T) *FeatureSchema {
	t.Helper()
	schema, err := NewFeatureSchema("test",
		[]string{"age", "chol", "sex_Female", "sex_Male", "cp_asymptomatic", "cp_non-anginal"},
		map[string][]string{
			"sex": {"Female", "Male"},
			"cp":  {"asymptomatic", "non-anginal", "typical angina"},
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return schema
}

func TestExpandEmitsWholeVocabulary(t *testing.T) {
	schema := testSchema(t)
	features, unknown := schema.Expand(
		map[string]float64{"age": 63},
		map[string]string{"sex": "male", "cp": "typical angina"},
	)
	if len(unknown) != 0 {
		t.Fatalf("unexpected unknown fields: %v", unknown)
	}
	want := Features{
		"age":               63,
		"sex_Female":        0,
		"sex_Male":          1,
		"cp_asymptomatic":   0,
		"cp_non-anginal":    0,
		"cp_typical angina": 1,
	}
	if !reflect.DeepEqual(features, want) {
		t.Fatalf("unexpected expansion:\n got %v\nwant %v", features, want)
	}
}

func TestAlignOrderAndFill(t *testing.T) {
	schema := testSchema(t)
	features, _ := schema.Expand(
		map[string]float64{"age": 50, "trestbps": 120},
		map[string]string{"sex": "Female", "cp": "typical angina"},
	)
	vector := schema.Align(features)

	if !reflect.DeepEqual(vector.Names, schema.Names()) {
		t.Fatalf("names differ from canonical list: %v", vector.Names)
	}
	// chol is absent from the record; trestbps and cp_typical angina are not canonical.
	want := []float64{50, 0, 1, 0, 0, 0}
	if !reflect.DeepEqual(vector.Values, want) {
		t.Fatalf("expected %v, got %v", want, vector.Values)
	}
	dropped := schema.Dropped(features)
	if !reflect.DeepEqual(dropped, []string{"cp_typical angina", "trestbps"}) {
		t.Fatalf("unexpected dropped features: %v", dropped)
	}
}

func TestExpandUnknownValueIsZeroedByAlignment(t *testing.T) {
	schema := testSchema(t)
	features, unknown := schema.Expand(nil, map[string]string{"sex": "Male", "cp": "silent"})
	if !reflect.DeepEqual(unknown, []string{"cp"}) {
		t.Fatalf("expected cp to be unknown, got %v", unknown)
	}
	if features["cp_silent"] != 1 {
		t.Fatalf("expected observed indicator before alignment")
	}
	vector := schema.Align(features)
	for i, name := range vector.Names {
		if (name == "cp_asymptomatic" || name == "cp_non-anginal") && vector.Values[i] != 0 {
			t.Fatalf("expected %s to be 0, got %v", name, vector.Values[i])
		}
	}
	if len(vector.Values) != schema.Width() {
		t.Fatalf("expected width %d, got %d", schema.Width(), len(vector.Values))
	}
}
