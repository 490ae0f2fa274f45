package ml

import "sort"

// Features is an unaligned name -> value mapping produced by expansion.
type Features map[string]float64

// Vector is a feature vector aligned to a schema. Names is the schema's
// canonical list and Values holds one entry per name, in the same order.
type Vector struct {
	Names  []string
	Values []float64
}

// Expand one-hot encodes the categorical fields and passes numeric fields
// through under their own names. Every vocabulary value of a field is
// emitted, so the set of names only depends on the schema and the observed
// values. It returns the fields whose value is outside the vocabulary, sorted.
func (s *FeatureSchema) Expand(numeric map[string]float64, categorical map[string]string) (Features, []string) {
	features := make(Features, len(numeric)+len(s.features))
	for name, value := range numeric {
		features[name] = value
	}

	var unknown []string
	for field, raw := range categorical {
		for _, value := range s.categories[field] {
			features[DummyName(field, value)] = 0
		}
		value, ok := s.Canonicalize(field, raw)
		if !ok {
			unknown = append(unknown, field)
		}
		features[DummyName(field, value)] = 1
	}
	sort.Strings(unknown)
	return features, unknown
}

// Align reindexes features against the canonical list: names missing from
// features are zero and names outside the list are dropped.
func (s *FeatureSchema) Align(features Features) Vector {
	values := make([]float64, len(s.features))
	for i, name := range s.features {
		values[i] = features[name]
	}
	return Vector{Names: s.features, Values: values}
}

// Dropped lists the expanded names with a non-zero value that Align discards.
func (s *FeatureSchema) Dropped(features Features) []string {
	var dropped []string
	for name, value := range features {
		if _, ok := s.index[name]; !ok && value != 0 {
			dropped = append(dropped, name)
		}
	}
	sort.Strings(dropped)
	return dropped
}
