package commands

import (
	"fmt"
	"log"

	"github.com/spf13/afero"

	"vocal-command-detection/capture"
	"vocal-command-detection/classifier"
	"vocal-command-detection/clients/player"
	"vocal-command-detection/config"
	"vocal-command-detection/decision"
	"vocal-command-detection/dispatch"
	"vocal-command-detection/features"
	"vocal-command-detection/recognition"
)

// pipeline bundles everything a command needs to run recognition cycles.
type pipeline struct {
	cfg       *config.Config
	model     *classifier.Linear
	extractor *features.Extractor
	engine    recognition.Interface
	source    capture.Interface
}

func (p *pipeline) close() {
	err := p.source.Close()
	if err != nil {
		log.Printf("error closing capture: %v", err)
	}
}

// loadModel reads the configured artifact; the model flag is required for
// every command that classifies audio.
func loadModel(fileSys afero.Fs) (*config.Config, *classifier.Linear, error) {
	if modelPath == "" {
		return nil, nil, fmt.Errorf("model file not specified (-m)")
	}

	cfg, err := config.Load(fileSys, configPath)
	if err != nil {
		return nil, nil, err
	}

	model, err := classifier.Load(fileSys, modelPath)
	if err != nil {
		return nil, nil, err
	}

	// The artifact's extractor parameters are authoritative: a mismatch
	// between them and the live extractor degrades accuracy without any
	// error, so the config file's audio/feature sections only get a say
	// when they agree.
	if artifact, local := model.Model().Extractor, cfg.ExtractorConfig(); artifact != local {
		log.Printf("config feature parameters differ from the model artifact; using the artifact's")
	}

	return cfg, model, nil
}

// buildPipeline wires capture through dispatch. source may be nil, in
// which case the microphone is used, honoring dumpDir.
func buildPipeline(fileSys afero.Fs, source capture.Interface, dumpDir string, opts pipelineOptions) (*pipeline, error) {
	cfg, model, err := loadModel(fileSys)
	if err != nil {
		return nil, err
	}

	return assemble(fileSys, cfg, model, source, dumpDir, opts)
}

type pipelineOptions struct {
	onCycle      func(decision.Decision)
	onPrediction func(*classifier.Prediction)
}

// assemble builds the pipeline from an already-loaded config and model.
func assemble(fileSys afero.Fs, cfg *config.Config, model *classifier.Linear, source capture.Interface, dumpDir string, opts pipelineOptions) (*pipeline, error) {
	extractorCfg := model.Model().Extractor

	extractor, err := features.New(extractorCfg)
	if err != nil {
		return nil, err
	}

	decider, err := decision.New(cfg.Policy())
	if err != nil {
		return nil, err
	}

	var playerClient player.API

	if cfg.Player.Host != "" {
		playerClient, err = player.NewClient(&player.Config{ApiHost: cfg.Player.Host})
		if err != nil {
			return nil, err
		}
	} else {
		playerClient = player.NewLogger()
	}

	dispatcher, err := dispatch.New(&dispatch.Config{
		Commands: cfg.CommandMap(),
		Labels:   model.Labels(),
		Player:   playerClient,
	})
	if err != nil {
		return nil, err
	}

	if source == nil {
		source, err = capture.NewMic(&capture.Config{
			SampleRate:  extractorCfg.SampleRate,
			Duration:    extractorCfg.Duration,
			DeviceIndex: cfg.Audio.Device,
			DumpFs:      fileSys,
			DumpDir:     dumpDir,
		})
		if err != nil {
			return nil, err
		}
	}

	engine, err := recognition.New(&recognition.Config{
		Capture:      source,
		Extractor:    extractor,
		Classifier:   model,
		Decider:      decider,
		Dispatcher:   dispatcher,
		Cooldown:     cfg.CooldownDuration(),
		OnCycle:      opts.onCycle,
		OnPrediction: opts.onPrediction,
	})
	if err != nil {
		return nil, err
	}

	return &pipeline{
		cfg:       cfg,
		model:     model,
		extractor: extractor,
		engine:    engine,
		source:    source,
	}, nil
}
