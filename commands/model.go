package commands

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"vocal-command-detection/clients/player"
	"vocal-command-detection/dispatch"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Print model artifact metadata and validate it against the command map",
	RunE: func(cmd *cobra.Command, args []string) error {
		fileSys := afero.NewOsFs()

		cfg, model, err := loadModel(fileSys)
		if err != nil {
			return err
		}

		artifact := model.Model()

		fmt.Printf("version:       %d\n", artifact.Version)
		fmt.Printf("labels:        %v\n", artifact.Labels)
		fmt.Printf("dimensions:    %d\n", artifact.Dim)
		fmt.Printf("sample rate:   %d Hz\n", artifact.Extractor.SampleRate)
		fmt.Printf("duration:      %g s\n", artifact.Extractor.Duration)
		fmt.Printf("fft/hop:       %d/%d\n", artifact.Extractor.FFTSize, artifact.Extractor.HopSize)
		fmt.Printf("mels/coeffs:   %d/%d\n", artifact.Extractor.NumMels, artifact.Extractor.NumCoefficients)
		fmt.Printf("aggregation:   %s\n", artifact.Extractor.Aggregation)

		for _, label := range artifact.Labels {
			fmt.Printf("  %-10s -> %s\n", label, cfg.CommandMap()[label])
		}

		// surfaces an incomplete command map without touching any audio
		_, err = dispatch.New(&dispatch.Config{
			Commands: cfg.CommandMap(),
			Labels:   model.Labels(),
			Player:   player.NewLogger(),
		})
		if err != nil {
			return err
		}

		fmt.Println("command map: ok")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)
}
