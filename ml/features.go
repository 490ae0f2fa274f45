package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// FeatureSchema is the canonical ordered feature list of a trained model
// together with the legal values of each categorical field. It is immutable
// once built.
type FeatureSchema struct {
	version    string
	features   []string
	index      map[string]int
	categories map[string][]string
	folded     map[string]map[string]string
	explicit   bool
}

type schemaFile struct {
	Version    string              `json:"version"`
	Features   []string            `json:"features"`
	Categories map[string][]string `json:"categories"`
}

// LoadFeatureSchema reads a feature-list artifact. The artifact is either a
// bare JSON array of feature names or an object carrying a version, the
// feature names and an explicit vocabulary. For the bare form the vocabulary
// of each field in categorical is derived from the "<field>_" prefixed names.
func LoadFeatureSchema(path string, categorical []string) (*FeatureSchema, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "[") {
		var names []string
		if err := json.Unmarshal(payload, &names); err != nil {
			return nil, fmt.Errorf("decode feature list %s: %w", path, err)
		}
		return NewFeatureSchema("", names, DeriveCategories(names, categorical))
	}
	var file schemaFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("decode feature schema %s: %w", path, err)
	}
	if file.Categories == nil {
		return NewFeatureSchema(file.Version, file.Features, DeriveCategories(file.Features, categorical))
	}
	schema, err := NewFeatureSchema(file.Version, file.Features, file.Categories)
	if err != nil {
		return nil, err
	}
	schema.explicit = true
	return schema, nil
}

// NewFeatureSchema validates the feature names and builds a schema. A nil
// categories map means no vocabulary is known.
func NewFeatureSchema(version string, features []string, categories map[string][]string) (*FeatureSchema, error) {
	if len(features) == 0 {
		return nil, errors.New("feature list is empty")
	}
	index := make(map[string]int, len(features))
	for i, name := range features {
		if name == "" {
			return nil, fmt.Errorf("feature %d has an empty name", i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate feature %q", name)
		}
		index[name] = i
	}

	vocab := make(map[string][]string, len(categories))
	folded := make(map[string]map[string]string, len(categories))
	fold := cases.Fold()
	for field, values := range categories {
		seen := make(map[string]string, len(values))
		for _, value := range values {
			key := fold.String(value)
			if prev, dup := seen[key]; dup {
				return nil, fmt.Errorf("field %s: values %q and %q collide", field, prev, value)
			}
			seen[key] = value
		}
		vocab[field] = append([]string(nil), values...)
		folded[field] = seen
	}

	return &FeatureSchema{
		version:    version,
		features:   append([]string(nil), features...),
		index:      index,
		categories: vocab,
		folded:     folded,
	}, nil
}

// DeriveCategories recovers a vocabulary from one-hot column names.
func DeriveCategories(features []string, categorical []string) map[string][]string {
	categories := make(map[string][]string, len(categorical))
	for _, field := range categorical {
		prefix := field + "_"
		values := make([]string, 0)
		for _, name := range features {
			if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
				values = append(values, name[len(prefix):])
			}
		}
		sort.Strings(values)
		categories[field] = values
	}
	return categories
}

func (s *FeatureSchema) Version() string { return s.version }

func (s *FeatureSchema) Width() int { return len(s.features) }

// Names returns the canonical order. Callers must not modify the slice.
func (s *FeatureSchema) Names() []string { return s.features }

// ExplicitVocabulary reports whether the vocabulary came from the artifact
// rather than being derived from column names.
func (s *FeatureSchema) ExplicitVocabulary() bool { return s.explicit }

func (s *FeatureSchema) Categories(field string) []string {
	return append([]string(nil), s.categories[field]...)
}

// Canonicalize maps value onto the vocabulary spelling of field, comparing
// case-insensitively. ok is false when the value is not in the vocabulary.
func (s *FeatureSchema) Canonicalize(field, value string) (string, bool) {
	value = strings.TrimSpace(value)
	known, has := s.folded[field]
	if !has {
		return value, false
	}
	if canonical, ok := known[cases.Fold().String(value)]; ok {
		return canonical, true
	}
	return value, false
}

func DummyName(field, value string) string {
	return field + "_" + value
}
