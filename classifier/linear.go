package classifier

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when a feature vector's length differs
// from the dimensionality the model was trained on.
var ErrDimensionMismatch = errors.New("feature dimension mismatch")

// Linear scores standardized feature vectors against per-label linear
// decision boundaries and converts the scores to a probability
// distribution with a softmax. It is read-only after construction and safe
// for concurrent use.
type Linear struct {
	model Model
}

func New(model Model) (*Linear, error) {
	err := model.validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	return &Linear{model: model}, nil
}

// Labels returns the model's ordered label set.
func (l *Linear) Labels() []string {
	labels := make([]string, len(l.model.Labels))
	copy(labels, l.model.Labels)

	return labels
}

// Dimensionality returns the feature vector length the model expects.
func (l *Linear) Dimensionality() int {
	return l.model.Dim
}

// Model returns the underlying artifact metadata.
func (l *Linear) Model() Model {
	return l.model
}

// Predict classifies one feature vector. Every vector is forced into one
// of the known labels; rejection of weak predictions happens downstream.
func (l *Linear) Predict(vector []float64) (*Prediction, error) {
	if len(vector) != l.model.Dim {
		return nil, fmt.Errorf("%w: got %d values, model trained on %d", ErrDimensionMismatch, len(vector), l.model.Dim)
	}

	standardized := make([]float64, l.model.Dim)
	for i, v := range vector {
		standardized[i] = (v - l.model.Mean[i]) / l.model.Scale[i]
	}

	scores := make([]float64, len(l.model.Labels))
	maxScore := math.Inf(-1)

	for i, weights := range l.model.Weights {
		score := l.model.Biases[i]
		for j, w := range weights {
			score += w * standardized[j]
		}

		scores[i] = score

		if score > maxScore {
			maxScore = score
		}
	}

	// softmax, shifted by the max score for numeric stability
	total := 0.0
	for i, score := range scores {
		scores[i] = math.Exp(score - maxScore)
		total += scores[i]
	}

	probabilities := make(map[string]float64, len(l.model.Labels))
	best := 0

	for i, label := range l.model.Labels {
		probabilities[label] = scores[i] / total

		if scores[i] > scores[best] {
			best = i
		}
	}

	return &Prediction{
		Label:         l.model.Labels[best],
		Confidence:    probabilities[l.model.Labels[best]],
		Probabilities: probabilities,
	}, nil
}
