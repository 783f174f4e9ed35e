// Package decision converts raw classifier predictions into accept/reject
// outcomes. The classifier is closed-world and labels everything, including
// background noise, so every false-positive defense lives here: an energy
// gate on the raw audio and confidence/margin gates on the prediction. The
// gates are independent and composable; the energy gate runs before feature
// extraction, the others after prediction.
package decision

import (
	"fmt"
	"math"

	"github.com/go-audio/audio"

	"vocal-command-detection/classifier"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonAccepted        Reason = "accepted"
	ReasonLowConfidence   Reason = "low-confidence"
	ReasonAmbiguous       Reason = "ambiguous"
	ReasonSilence         Reason = "silence"
	ReasonProcessingError Reason = "processing-error"
)

// Decision is the outcome of one recognition cycle. Label is set only when
// accepted.
type Decision struct {
	Label  string
	Reason Reason
}

// Accepted reports whether the cycle produced a command.
func (d Decision) Accepted() bool {
	return d.Reason == ReasonAccepted
}

func (d Decision) String() string {
	if d.Accepted() {
		return fmt.Sprintf("accepted(%s)", d.Label)
	}

	return fmt.Sprintf("rejected(%s)", d.Reason)
}

// Policy holds the gate thresholds.
type Policy struct {
	// ConfidenceThreshold rejects predictions whose arg-max probability
	// falls below it.
	ConfidenceThreshold float64

	// MinMargin rejects predictions where the top two probabilities are
	// closer than this. Zero disables the gate.
	MinMargin float64

	// SilenceRMS rejects buffers whose root-mean-square amplitude falls
	// below it, before any feature extraction. Zero disables the gate.
	SilenceRMS float64
}

type Engine struct {
	policy Policy
}

func New(policy Policy) (*Engine, error) {
	if policy.ConfidenceThreshold < 0 || policy.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("confidence threshold must be in [0, 1], got %g", policy.ConfidenceThreshold)
	}

	if policy.MinMargin < 0 || policy.MinMargin > 1 {
		return nil, fmt.Errorf("min margin must be in [0, 1], got %g", policy.MinMargin)
	}

	if policy.SilenceRMS < 0 {
		return nil, fmt.Errorf("silence rms must not be negative, got %g", policy.SilenceRMS)
	}

	return &Engine{policy: policy}, nil
}

// Policy returns the engine's thresholds.
func (e *Engine) Policy() Policy {
	return e.policy
}

// CheckSilence applies the energy gate to a raw capture buffer. It returns
// a rejection when the buffer is too quiet to classify, nil otherwise.
func (e *Engine) CheckSilence(buf *audio.FloatBuffer) *Decision {
	if e.policy.SilenceRMS == 0 || buf == nil {
		return nil
	}

	if RMS(buf.Data) < e.policy.SilenceRMS {
		return &Decision{Reason: ReasonSilence}
	}

	return nil
}

// Decide applies the confidence and margin gates to a prediction.
// Deterministic given identical inputs; no hidden state.
func (e *Engine) Decide(prediction *classifier.Prediction) Decision {
	if prediction == nil {
		return Decision{Reason: ReasonProcessingError}
	}

	if prediction.Confidence < e.policy.ConfidenceThreshold {
		return Decision{Reason: ReasonLowConfidence}
	}

	if e.policy.MinMargin > 0 {
		if prediction.Confidence-runnerUp(prediction) < e.policy.MinMargin {
			return Decision{Reason: ReasonAmbiguous}
		}
	}

	return Decision{Label: prediction.Label, Reason: ReasonAccepted}
}

// runnerUp returns the highest probability among the non-winning labels.
func runnerUp(prediction *classifier.Prediction) float64 {
	second := 0.0
	for label, p := range prediction.Probabilities {
		if label != prediction.Label && p > second {
			second = p
		}
	}

	return second
}

// RMS computes the root-mean-square amplitude of normalized samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}

	return math.Sqrt(sum / float64(len(samples)))
}
