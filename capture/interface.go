package capture

import (
	"context"
	"errors"

	"github.com/go-audio/audio"
)

// ErrDevice wraps audio device failures. Device errors are fatal to a
// recognition loop; there is no audio to process without the device.
var ErrDevice = errors.New("capture device error")

// Interface produces fixed-duration mono buffers of normalized float
// samples in [-1, 1]. Capture blocks for the configured duration; a
// capture in progress is never cancelled mid-window.
type Interface interface {
	Capture(ctx context.Context) (*audio.FloatBuffer, error)
	Close() error
}
