package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"vocal-command-detection/capture"
	"vocal-command-detection/decision"
	"vocal-command-detection/features"
	"vocal-command-detection/ring_buffer"
)

var (
	meter        bool
	meterWindows int
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := capture.Devices()
		if err != nil {
			return err
		}

		for _, device := range devices {
			fmt.Printf("%3d: %s (%d ch, %.0f Hz)\n", device.Index, device.Name, device.MaxChannels, device.SampleRate)
		}

		if !meter {
			return nil
		}

		return runMeter(cmd.Context())
	},
}

// runMeter records a few capture windows from the default device and
// prints their RMS levels, for picking a silence_rms threshold.
func runMeter(ctx context.Context) error {
	extractorCfg := features.DefaultConfig()

	mic, err := capture.NewMic(&capture.Config{
		SampleRate:  extractorCfg.SampleRate,
		Duration:    extractorCfg.Duration,
		DeviceIndex: -1,
	})
	if err != nil {
		return err
	}

	defer mic.Close()

	smoothed := ring_buffer.New(meterWindows)

	fmt.Printf("measuring %d windows of %g s, stay quiet for a noise-floor reading\n", meterWindows, extractorCfg.Duration)

	for i := 0; i < meterWindows; i++ {
		buffer, err := mic.Capture(ctx)
		if err != nil {
			return err
		}

		level := decision.RMS(buffer.Data)
		smoothed.Add([]float64{level})

		fmt.Printf("window %d: rms %.5f\n", i+1, level)
	}

	fmt.Printf("mean rms: %.5f (set decision.silence_rms just above this)\n", smoothed.Mean())

	return nil
}

func init() {
	devicesCmd.Flags().BoolVar(&meter, "meter", false, "record a few windows and print their RMS levels")
	devicesCmd.Flags().IntVar(&meterWindows, "windows", 3, "number of windows to measure with --meter")

	rootCmd.AddCommand(devicesCmd)
}
