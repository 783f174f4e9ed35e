package recognition

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"vocal-command-detection/capture"
	"vocal-command-detection/classifier"
	"vocal-command-detection/decision"
	"vocal-command-detection/dispatch"
	"vocal-command-detection/features"
)

type engineImpl struct {
	captureDevice capture.Interface
	extractor     *features.Extractor
	model         classifier.Interface
	decider       *decision.Engine
	dispatcher    dispatch.Interface
	cooldown      time.Duration
	onCycle       func(decision.Decision)
	onPrediction  func(*classifier.Prediction)
}

type Config struct {
	Capture    capture.Interface
	Extractor  *features.Extractor
	Classifier classifier.Interface
	Decider    *decision.Engine
	Dispatcher dispatch.Interface

	// Cooldown is the minimum interval after an accepted command before
	// the next capture starts, so one sustained sound cannot fire twice.
	Cooldown time.Duration

	// OnCycle, when set, observes every decision, accepted or not.
	OnCycle func(decision.Decision)

	// OnPrediction, when set, observes every raw prediction before the
	// gates run. Used for reporting and threshold tuning.
	OnPrediction func(*classifier.Prediction)
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Capture == nil {
		return nil, fmt.Errorf("capture is nil")
	}

	if cfg.Extractor == nil {
		return nil, fmt.Errorf("extractor is nil")
	}

	if cfg.Classifier == nil {
		return nil, fmt.Errorf("classifier is nil")
	}

	if cfg.Decider == nil {
		return nil, fmt.Errorf("decider is nil")
	}

	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is nil")
	}

	if cfg.Cooldown < 0 {
		return nil, fmt.Errorf("cooldown must not be negative")
	}

	if cfg.Extractor.Dimensionality() != cfg.Classifier.Dimensionality() {
		return nil, fmt.Errorf("extractor yields %d-dim vectors, classifier trained on %d",
			cfg.Extractor.Dimensionality(), cfg.Classifier.Dimensionality())
	}

	return &engineImpl{
		captureDevice: cfg.Capture,
		extractor:     cfg.Extractor,
		model:         cfg.Classifier,
		decider:       cfg.Decider,
		dispatcher:    cfg.Dispatcher,
		cooldown:      cfg.Cooldown,
		onCycle:       cfg.OnCycle,
		onPrediction:  cfg.OnPrediction,
	}, nil
}

// cycle runs one capture -> gate -> extract -> predict -> decide pass.
// Capture errors come back wrapping capture.ErrDevice; extraction and
// prediction errors come back alongside a processing-error decision so the
// caller picks the severity.
func (e *engineImpl) cycle(ctx context.Context) (decision.Decision, error) {
	buffer, err := e.captureDevice.Capture(ctx)
	if err != nil {
		return decision.Decision{Reason: decision.ReasonProcessingError}, err
	}

	if rejected := e.decider.CheckSilence(buffer); rejected != nil {
		return *rejected, nil
	}

	vector, err := e.extractor.Extract(buffer)
	if err != nil {
		return decision.Decision{Reason: decision.ReasonProcessingError}, fmt.Errorf("extracting features: %w", err)
	}

	prediction, err := e.model.Predict(vector)
	if err != nil {
		return decision.Decision{Reason: decision.ReasonProcessingError}, fmt.Errorf("classifying: %w", err)
	}

	if e.onPrediction != nil {
		e.onPrediction(prediction)
	}

	return e.decider.Decide(prediction), nil
}

func (e *engineImpl) RecognizeOnce(ctx context.Context) (decision.Decision, error) {
	result, err := e.cycle(ctx)
	if err != nil {
		return result, err
	}

	if e.onCycle != nil {
		e.onCycle(result)
	}

	if result.Accepted() {
		err = e.dispatcher.Dispatch(ctx, result.Label)
		if err != nil {
			log.Printf("error dispatching %q: %v", result.Label, err)
		}
	}

	return result, nil
}

// Listen is the continuous mode loop. Cancellation is cooperative: the
// context is checked between cycles, never mid-capture. A failed cycle is
// logged and the loop keeps going; only device errors end it.
func (e *engineImpl) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			log.Printf("exiting gracefully")

			return nil
		default:
		}

		result, err := e.cycle(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Printf("exiting gracefully")

				return nil
			}

			if errors.Is(err, capture.ErrDevice) {
				return err
			}

			log.Printf("error on cycle, skipping: %v", err)

			result = decision.Decision{Reason: decision.ReasonProcessingError}
		}

		if e.onCycle != nil {
			e.onCycle(result)
		}

		if !result.Accepted() {
			continue
		}

		log.Printf("recognized command: %s", result.Label)

		err = e.dispatcher.Dispatch(ctx, result.Label)
		if err != nil {
			log.Printf("error dispatching %q: %v", result.Label, err)
		}

		if !e.coolDown(ctx) {
			log.Printf("exiting gracefully")

			return nil
		}
	}
}

// coolDown waits out the debounce interval. Returns false when the
// context is cancelled while waiting.
func (e *engineImpl) coolDown(ctx context.Context) bool {
	if e.cooldown == 0 {
		return true
	}

	timer := time.NewTimer(e.cooldown)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
