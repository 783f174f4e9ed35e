package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"vocal-command-detection/capture"
	"vocal-command-detection/classifier"
)

var wavFile string

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Recognize a single capture window and print the decision",
	RunE: func(cmd *cobra.Command, args []string) error {
		fileSys := afero.NewOsFs()

		cfg, model, err := loadModel(fileSys)
		if err != nil {
			return err
		}

		var source capture.Interface

		if wavFile != "" {
			source, err = capture.NewFile(&capture.FileConfig{
				FileSys:    fileSys,
				Path:       wavFile,
				SampleRate: model.Model().Extractor.SampleRate,
				Duration:   model.Model().Extractor.Duration,
			})
			if err != nil {
				return err
			}
		}

		var lastPrediction *classifier.Prediction

		pipe, err := assemble(fileSys, cfg, model, source, "", pipelineOptions{
			onPrediction: func(p *classifier.Prediction) {
				lastPrediction = p
			},
		})
		if err != nil {
			return err
		}

		defer pipe.close()

		if wavFile == "" {
			fmt.Printf("recording for %g seconds...\n", model.Model().Extractor.Duration)
		}

		result, err := pipe.engine.RecognizeOnce(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("decision: %s\n", result)

		if lastPrediction != nil {
			printDistribution(lastPrediction)
		}

		return nil
	},
}

func printDistribution(prediction *classifier.Prediction) {
	labels := make([]string, 0, len(prediction.Probabilities))
	for label := range prediction.Probabilities {
		labels = append(labels, label)
	}

	sort.Slice(labels, func(i, j int) bool {
		return prediction.Probabilities[labels[i]] > prediction.Probabilities[labels[j]]
	})

	for _, label := range labels {
		fmt.Printf("  %-10s %.3f\n", label, prediction.Probabilities[label])
	}
}

func init() {
	onceCmd.Flags().StringVarP(&wavFile, "file", "f", "", "recognize this wav file instead of recording")

	rootCmd.AddCommand(onceCmd)
}
