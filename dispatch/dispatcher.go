package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"vocal-command-detection/clients/player"
)

// ErrIncompleteCommandMap is returned at construction when the command map
// and the classifier's label set differ. Dispatch itself can then never
// see an unmapped label.
var ErrIncompleteCommandMap = errors.New("incomplete command map")

// Action is one of the requests the external player accepts.
type Action string

const (
	ActionPause      Action = "pause"
	ActionResume     Action = "resume"
	ActionNext       Action = "next"
	ActionPrevious   Action = "previous"
	ActionVolumeDown Action = "volume-down"
	ActionVolumeUp   Action = "volume-up"
)

// KnownActions lists every action the player contract accepts.
var KnownActions = []Action{
	ActionPause,
	ActionResume,
	ActionNext,
	ActionPrevious,
	ActionVolumeDown,
	ActionVolumeUp,
}

// DefaultCommands is the stock gesture-to-action table.
func DefaultCommands() map[string]Action {
	return map[string]Action{
		"shush":   ActionPause,
		"click":   ActionResume,
		"whistle": ActionNext,
		"pop":     ActionPrevious,
		"hiss":    ActionVolumeDown,
		"hum":     ActionVolumeUp,
	}
}

// ValidAction reports whether a is one of the player contract's actions.
func ValidAction(a Action) bool {
	for _, known := range KnownActions {
		if a == known {
			return true
		}
	}

	return false
}

type Interface interface {
	Dispatch(ctx context.Context, label string) error
}

type dispatcherImpl struct {
	commands map[string]Action
	player   player.API
}

type Config struct {
	// Commands maps every classifier label to a player action. Its key
	// set must equal Labels exactly.
	Commands map[string]Action

	// Labels is the loaded model's label set.
	Labels []string

	Player player.API
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if cfg.Player == nil {
		return nil, errors.New("player is nil")
	}

	if len(cfg.Labels) == 0 {
		return nil, errors.New("labels are empty")
	}

	for label, action := range cfg.Commands {
		if !ValidAction(action) {
			return nil, fmt.Errorf("unknown action %q for label %q", action, label)
		}
	}

	labelSet := make(map[string]bool, len(cfg.Labels))
	for _, label := range cfg.Labels {
		labelSet[label] = true
	}

	var missing, extra []string

	for _, label := range cfg.Labels {
		if _, ok := cfg.Commands[label]; !ok {
			missing = append(missing, label)
		}
	}

	for label := range cfg.Commands {
		if !labelSet[label] {
			extra = append(extra, label)
		}
	}

	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(missing)
		sort.Strings(extra)

		return nil, fmt.Errorf("%w: unmapped labels %v, mappings without a label %v", ErrIncompleteCommandMap, missing, extra)
	}

	commands := make(map[string]Action, len(cfg.Commands))
	for label, action := range cfg.Commands {
		commands[label] = action
	}

	return &dispatcherImpl{
		commands: commands,
		player:   cfg.Player,
	}, nil
}

// Dispatch forwards the action mapped to label to the player. Called only
// for accepted decisions.
func (d *dispatcherImpl) Dispatch(ctx context.Context, label string) error {
	action, ok := d.commands[label]
	if !ok {
		// unreachable when constructed through New
		return fmt.Errorf("%w: no action for label %q", ErrIncompleteCommandMap, label)
	}

	err := d.player.Send(ctx, string(action))
	if err != nil {
		return fmt.Errorf("sending %q to player: %w", action, err)
	}

	return nil
}
