package player

import (
	"context"
	"log"
)

type loggerImpl struct{}

// NewLogger returns a player that only logs the actions it receives. Used
// when no player host is configured, so the pipeline can run standalone.
func NewLogger() API {
	return &loggerImpl{}
}

func (*loggerImpl) Send(_ context.Context, action string) error {
	log.Printf("player action: %s", action)

	return nil
}
