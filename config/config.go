// Package config loads the recognizer's YAML configuration file. Every
// field has a default matching the stock model artifacts, so an empty file
// (or no file at all) yields a working setup.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"

	"vocal-command-detection/decision"
	"vocal-command-detection/dispatch"
	"vocal-command-detection/features"
)

type AudioConfig struct {
	SampleRate int     `yaml:"sample_rate"`
	Duration   float64 `yaml:"duration"`
	Device     int     `yaml:"device"`
}

type FeaturesConfig struct {
	FFTSize         int    `yaml:"fft_size"`
	HopSize         int    `yaml:"hop_size"`
	NumMels         int    `yaml:"num_mels"`
	NumCoefficients int    `yaml:"num_coefficients"`
	Aggregation     string `yaml:"aggregation"`
}

type DecisionConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	MinMargin           float64 `yaml:"min_margin"`
	SilenceRMS          float64 `yaml:"silence_rms"`
}

type LoopConfig struct {
	// Cooldown is the debounce interval in seconds.
	Cooldown float64 `yaml:"cooldown"`
}

type PlayerConfig struct {
	Host string `yaml:"host"`
}

type Config struct {
	Audio    AudioConfig       `yaml:"audio"`
	Features FeaturesConfig    `yaml:"features"`
	Decision DecisionConfig    `yaml:"decision"`
	Loop     LoopConfig        `yaml:"loop"`
	Player   PlayerConfig      `yaml:"player"`
	Commands map[string]string `yaml:"commands"`
}

// Default mirrors the parameters the stock model artifacts were trained
// with, plus conservative gate thresholds.
func Default() *Config {
	extractor := features.DefaultConfig()

	commands := make(map[string]string)
	for label, action := range dispatch.DefaultCommands() {
		commands[label] = string(action)
	}

	return &Config{
		Audio: AudioConfig{
			SampleRate: extractor.SampleRate,
			Duration:   extractor.Duration,
			Device:     -1,
		},
		Features: FeaturesConfig{
			FFTSize:         extractor.FFTSize,
			HopSize:         extractor.HopSize,
			NumMels:         extractor.NumMels,
			NumCoefficients: extractor.NumCoefficients,
			Aggregation:     string(extractor.Aggregation),
		},
		Decision: DecisionConfig{
			ConfidenceThreshold: 0.6,
			MinMargin:           0.15,
			SilenceRMS:          0.01,
		},
		Loop: LoopConfig{
			Cooldown: 2,
		},
		Commands: commands,
	}
}

// Load reads path and overlays it on the defaults. A missing file is not
// an error; the defaults apply.
func Load(fileSys afero.Fs, path string) (*Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(fileSys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}

	if c.Audio.Duration <= 0 {
		return fmt.Errorf("audio.duration must be positive, got %g", c.Audio.Duration)
	}

	if c.Decision.ConfidenceThreshold < 0 || c.Decision.ConfidenceThreshold > 1 {
		return fmt.Errorf("decision.confidence_threshold must be in [0, 1], got %g", c.Decision.ConfidenceThreshold)
	}

	if c.Decision.MinMargin < 0 || c.Decision.MinMargin > 1 {
		return fmt.Errorf("decision.min_margin must be in [0, 1], got %g", c.Decision.MinMargin)
	}

	if c.Decision.SilenceRMS < 0 {
		return fmt.Errorf("decision.silence_rms must not be negative, got %g", c.Decision.SilenceRMS)
	}

	if c.Loop.Cooldown < 0 {
		return fmt.Errorf("loop.cooldown must not be negative, got %g", c.Loop.Cooldown)
	}

	agg := features.Aggregation(c.Features.Aggregation)
	if agg != features.AggregationMean && agg != features.AggregationMeanVariance {
		return fmt.Errorf("features.aggregation must be %q or %q, got %q",
			features.AggregationMean, features.AggregationMeanVariance, c.Features.Aggregation)
	}

	for label, action := range c.Commands {
		if !dispatch.ValidAction(dispatch.Action(action)) {
			return fmt.Errorf("commands.%s: unknown action %q", label, action)
		}
	}

	return nil
}

// ExtractorConfig returns the feature parameters in extractor form.
func (c *Config) ExtractorConfig() features.Config {
	return features.Config{
		SampleRate:      c.Audio.SampleRate,
		Duration:        c.Audio.Duration,
		FFTSize:         c.Features.FFTSize,
		HopSize:         c.Features.HopSize,
		NumMels:         c.Features.NumMels,
		NumCoefficients: c.Features.NumCoefficients,
		Aggregation:     features.Aggregation(c.Features.Aggregation),
	}
}

// Policy returns the decision gate thresholds.
func (c *Config) Policy() decision.Policy {
	return decision.Policy{
		ConfidenceThreshold: c.Decision.ConfidenceThreshold,
		MinMargin:           c.Decision.MinMargin,
		SilenceRMS:          c.Decision.SilenceRMS,
	}
}

// CooldownDuration returns the debounce interval.
func (c *Config) CooldownDuration() time.Duration {
	return time.Duration(c.Loop.Cooldown * float64(time.Second))
}

// CommandMap returns the label-to-action table in dispatcher form.
func (c *Config) CommandMap() map[string]dispatch.Action {
	commands := make(map[string]dispatch.Action, len(c.Commands))
	for label, action := range c.Commands {
		commands[label] = dispatch.Action(action)
	}

	return commands
}
