package player

import "context"

// API is the external music player collaborator. It either acknowledges an
// action or fails; the pipeline never depends on the player's internal
// state.
type API interface {
	Send(ctx context.Context, action string) error
}
