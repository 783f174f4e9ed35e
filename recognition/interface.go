package recognition

import (
	"context"

	"vocal-command-detection/decision"
)

type Interface interface {
	// RecognizeOnce runs a single capture-to-decision cycle and reports
	// the decision, dispatching it when accepted.
	RecognizeOnce(ctx context.Context) (decision.Decision, error)

	// Listen runs cycles until the context is cancelled, dispatching
	// accepted decisions with a cooldown between them.
	Listen(ctx context.Context) error
}
