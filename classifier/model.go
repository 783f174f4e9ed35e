package classifier

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"

	"vocal-command-detection/features"
)

// ErrModelLoad is returned when a model artifact is missing, corrupt, or
// internally inconsistent. It always fails at load time, never on first
// prediction.
var ErrModelLoad = errors.New("model load failed")

// ModelVersion is the artifact format this build reads and writes.
const ModelVersion = 1

// Model is the persisted classifier artifact: a set of linear decision
// boundaries plus the standardization parameters and extractor
// configuration they were fitted against. Immutable once loaded.
type Model struct {
	Version   int             `msgpack:"version"`
	Labels    []string        `msgpack:"labels"`
	Dim       int             `msgpack:"dim"`
	Extractor features.Config `msgpack:"extractor"`

	// Mean and Scale standardize incoming vectors before scoring.
	Mean  []float64 `msgpack:"mean"`
	Scale []float64 `msgpack:"scale"`

	// Weights holds one row per label, Biases one value per label.
	Weights [][]float64 `msgpack:"weights"`
	Biases  []float64   `msgpack:"biases"`
}

// Load reads and validates a model artifact, returning a ready predictor.
func Load(fileSys afero.Fs, path string) (*Linear, error) {
	data, err := afero.ReadFile(fileSys, path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrModelLoad, path, err)
	}

	var model Model

	err = msgpack.Unmarshal(data, &model)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrModelLoad, path, err)
	}

	return New(model)
}

// Save writes the artifact to the filesystem.
func (m *Model) Save(fileSys afero.Fs, path string) error {
	data, err := msgpack.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}

	return afero.WriteFile(fileSys, path, data, 0o644)
}

func (m *Model) validate() error {
	if m.Version != ModelVersion {
		return fmt.Errorf("unsupported model version %d, want %d", m.Version, ModelVersion)
	}

	if len(m.Labels) == 0 {
		return errors.New("model has no labels")
	}

	seen := make(map[string]bool, len(m.Labels))
	for _, label := range m.Labels {
		if label == "" {
			return errors.New("model has an empty label")
		}

		if seen[label] {
			return fmt.Errorf("duplicate label %q", label)
		}

		seen[label] = true
	}

	if m.Dim <= 0 {
		return fmt.Errorf("model dimensionality %d is not positive", m.Dim)
	}

	if len(m.Mean) != m.Dim || len(m.Scale) != m.Dim {
		return fmt.Errorf("standardization parameters have %d/%d values, want %d", len(m.Mean), len(m.Scale), m.Dim)
	}

	for i, s := range m.Scale {
		if s == 0 {
			return fmt.Errorf("scale[%d] is zero", i)
		}
	}

	if len(m.Weights) != len(m.Labels) || len(m.Biases) != len(m.Labels) {
		return fmt.Errorf("model has %d weight rows and %d biases for %d labels", len(m.Weights), len(m.Biases), len(m.Labels))
	}

	for i, row := range m.Weights {
		if len(row) != m.Dim {
			return fmt.Errorf("weight row %d has %d values, want %d", i, len(row), m.Dim)
		}
	}

	// The extractor parameters travel with the artifact; make sure they
	// are usable and produce vectors of the trained dimensionality.
	extractor, err := features.New(m.Extractor)
	if err != nil {
		return fmt.Errorf("extractor config: %v", err)
	}

	if extractor.Dimensionality() != m.Dim {
		return fmt.Errorf("extractor config yields %d-dim vectors, model trained on %d", extractor.Dimensionality(), m.Dim)
	}

	return nil
}
