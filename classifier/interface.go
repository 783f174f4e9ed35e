package classifier

// Prediction is the outcome of classifying one feature vector. The
// Probabilities keys are always exactly the model's label set.
type Prediction struct {
	// Label is the arg-max class.
	Label string

	// Confidence is the probability assigned to Label (0.0 to 1.0).
	Confidence float64

	// Probabilities is the full distribution over all known labels.
	Probabilities map[string]float64
}

type Interface interface {
	Predict(vector []float64) (*Prediction, error)
	Labels() []string
	Dimensionality() int
}
