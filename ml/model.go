package ml

// Classifier is a trained binary model. Implementations are read-only after
// load and safe for concurrent use.
type Classifier interface {
	Predict(features []float64) (int, error)
	PredictProba(features []float64) ([]float64, error)
	// NumFeatures returns the expected input width, or 0 when the artifact
	// does not pin one.
	NumFeatures() int
}

// Decision threshold shared by the classifiers: class 1 only when its
// probability is strictly above it.
const decisionThreshold = 0.5

func labelFor(p1 float64) int {
	if p1 > decisionThreshold {
		return 1
	}
	return 0
}
