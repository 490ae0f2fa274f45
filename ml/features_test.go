package ml

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

var testCategorical = []string{"sex", "cp"}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFeatureSchemaBareList(t *testing.T) {
	path := writeFile(t, "columns.json", `["age","sex_Male","cp_asymptomatic","cp_typical angina"]`)
	schema, err := LoadFeatureSchema(path, testCategorical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.Width() != 4 {
		t.Fatalf("expected width 4, got %d", schema.Width())
	}
	if schema.ExplicitVocabulary() {
		t.Fatal("expected derived vocabulary")
	}
	if got := schema.Categories("cp"); !reflect.DeepEqual(got, []string{"asymptomatic", "typical angina"}) {
		t.Fatalf("unexpected cp vocabulary: %v", got)
	}
	if got := schema.Categories("sex"); !reflect.DeepEqual(got, []string{"Male"}) {
		t.Fatalf("unexpected sex vocabulary: %v", got)
	}
}

func TestLoadFeatureSchemaObject(t *testing.T) {
	path := writeFile(t, "schema.json", `{"version":"2024-05","features":["age","sex_Female","sex_Male"],
"categories":{"sex":["Female","Male"]}}`)
	schema, err := LoadFeatureSchema(path, testCategorical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.Version() != "2024-05" {
		t.Fatalf("unexpected version %q", schema.Version())
	}
	if !schema.ExplicitVocabulary() {
		t.Fatal("expected explicit vocabulary")
	}
	if got := schema.Categories("cp"); len(got) != 0 {
		t.Fatalf("expected no cp vocabulary, got %v", got)
	}
}

func TestLoadFeatureSchemaErrors(t *testing.T) {
	cases := map[string]string{
		"empty":     `[]`,
		"duplicate": `["age","age"]`,
		"blank":     `["age",""]`,
		"corrupt":   `["age"`,
		"collision": `{"features":["sex_male"],"categories":{"sex":["male","MALE"]}}`,
	}
	for name, body := range cases {
		if _, err := LoadFeatureSchema(writeFile(t, name+".json", body), testCategorical); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := LoadFeatureSchema(filepath.Join(t.TempDir(), "missing.json"), testCategorical); err == nil {
		t.Error("missing: expected error")
	}
}

func TestCanonicalize(t *testing.T) {
	schema, err := NewFeatureSchema("", []string{"fbs_TRUE"}, map[string][]string{"fbs": {"FALSE", "TRUE"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := schema.Canonicalize("fbs", " true "); !ok || got != "TRUE" {
		t.Fatalf("expected TRUE, got %q %v", got, ok)
	}
	if got, ok := schema.Canonicalize("fbs", "maybe"); ok || got != "maybe" {
		t.Fatalf("expected unknown value, got %q %v", got, ok)
	}
	if _, ok := schema.Canonicalize("thal", "normal"); ok {
		t.Fatal("expected field without vocabulary to be unknown")
	}
}
