package commands

import (
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"vocal-command-detection/decision"
)

var dumpDir string

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Continuously recognize gestures and drive the player",
	RunE: func(cmd *cobra.Command, args []string) error {
		fileSys := afero.NewOsFs()

		if dumpDir != "" {
			err := fileSys.MkdirAll(dumpDir, 0o755)
			if err != nil {
				return err
			}
		}

		var opts pipelineOptions

		if verbose {
			opts.onCycle = func(d decision.Decision) {
				if !d.Accepted() {
					log.Printf("no command recognized: %s", d)
				}
			}
		}

		pipe, err := buildPipeline(fileSys, nil, dumpDir, opts)
		if err != nil {
			return err
		}

		defer pipe.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Printf("listening for %v commands, ctrl-c to stop", pipe.model.Labels())

		return pipe.engine.Listen(ctx)
	},
}

func init() {
	listenCmd.Flags().StringVar(&dumpDir, "dump-dir", "", "write each captured window as a wav file into this directory")

	rootCmd.AddCommand(listenCmd)
}
