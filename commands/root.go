package commands

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	modelPath  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "vocal-command-detection",
	Short: "Control a music player with short vocal gestures",
	Long: `vocal-command-detection recognizes short non-speech vocal gestures
(shush, click, whistle, pop, hiss, hum) from the microphone and maps each
one to a music player action.

A trained model artifact is required for recognition:

  # one recognition window, print the decision
  vocal-command-detection once -m model.vcm

  # listen until interrupted, forwarding actions to a player
  vocal-command-detection listen -m model.vcm -c config.yaml

  # pick an input device and tune the silence gate
  vocal-command-detection devices --meter`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVarP(&modelPath, "model", "m", "", "model artifact file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log rejected decisions too")
}
