package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-audio/audio"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// ErrInvalidBufferLength is returned when a buffer does not match the
// configured sample rate and duration.
var ErrInvalidBufferLength = errors.New("invalid buffer length")

type Aggregation string

const (
	AggregationMean         Aggregation = "mean"
	AggregationMeanVariance Aggregation = "mean+variance"
)

const logFloor = 1e-10

// Config holds the framing and filterbank parameters for extraction.
// A model artifact carries the Config it was trained with; running a model
// against an extractor built from a different Config degrades accuracy
// without erroring, so the two must always travel together.
type Config struct {
	SampleRate      int         `yaml:"sample_rate" msgpack:"sample_rate"`
	Duration        float64     `yaml:"duration" msgpack:"duration"`
	FFTSize         int         `yaml:"fft_size" msgpack:"fft_size"`
	HopSize         int         `yaml:"hop_size" msgpack:"hop_size"`
	NumMels         int         `yaml:"num_mels" msgpack:"num_mels"`
	NumCoefficients int         `yaml:"num_coefficients" msgpack:"num_coefficients"`
	Aggregation     Aggregation `yaml:"aggregation" msgpack:"aggregation"`
}

// DefaultConfig returns the parameters the stock model artifacts are
// trained with: 2 s windows at 22.05 kHz, 2048-point frames with a 512
// sample hop, 128 mel bands reduced to 13 cepstral coefficients.
func DefaultConfig() Config {
	return Config{
		SampleRate:      22050,
		Duration:        2,
		FFTSize:         2048,
		HopSize:         512,
		NumMels:         128,
		NumCoefficients: 13,
		Aggregation:     AggregationMean,
	}
}

// Extractor converts a fixed-duration audio buffer into a fixed-length
// cepstral feature vector. It is pure and deterministic: identical buffers
// always yield identical vectors.
type Extractor struct {
	cfg      Config
	hamming  []float64
	melBank  [][]float64
	dctTable [][]float64
	expected int
}

func New(cfg Config) (*Extractor, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRate)
	}

	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %g", cfg.Duration)
	}

	if cfg.FFTSize <= 0 || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a positive power of two, got %d", cfg.FFTSize)
	}

	if cfg.HopSize <= 0 || cfg.HopSize > cfg.FFTSize {
		return nil, fmt.Errorf("hop size must be in (0, fft size], got %d", cfg.HopSize)
	}

	if cfg.NumMels <= 0 {
		return nil, fmt.Errorf("num mels must be positive, got %d", cfg.NumMels)
	}

	if cfg.NumCoefficients <= 0 || cfg.NumCoefficients > cfg.NumMels {
		return nil, fmt.Errorf("num coefficients must be in (0, num mels], got %d", cfg.NumCoefficients)
	}

	if cfg.Aggregation != AggregationMean && cfg.Aggregation != AggregationMeanVariance {
		return nil, fmt.Errorf("unknown aggregation %q", cfg.Aggregation)
	}

	expected := int(float64(cfg.SampleRate) * cfg.Duration)
	if expected < cfg.FFTSize {
		return nil, fmt.Errorf("capture window of %d samples is shorter than one analysis frame (%d)", expected, cfg.FFTSize)
	}

	return &Extractor{
		cfg:      cfg,
		hamming:  window.Hamming(cfg.FFTSize),
		melBank:  melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, 0, float64(cfg.SampleRate)/2),
		dctTable: dctII(cfg.NumCoefficients, cfg.NumMels),
		expected: expected,
	}, nil
}

// Dimensionality returns the length of every vector Extract produces.
func (e *Extractor) Dimensionality() int {
	if e.cfg.Aggregation == AggregationMeanVariance {
		return 2 * e.cfg.NumCoefficients
	}

	return e.cfg.NumCoefficients
}

// Config returns the parameters this extractor was built with.
func (e *Extractor) Config() Config {
	return e.cfg
}

// ExpectedSamples returns the exact buffer length Extract accepts.
func (e *Extractor) ExpectedSamples() int {
	return e.expected
}

// Extract computes cepstral coefficients for each overlapping analysis
// frame of the buffer, then aggregates them across time into a single
// vector of Dimensionality() values.
func (e *Extractor) Extract(buf *audio.FloatBuffer) ([]float64, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", ErrInvalidBufferLength)
	}

	if len(buf.Data) != e.expected {
		return nil, fmt.Errorf("%w: got %d samples, want %d", ErrInvalidBufferLength, len(buf.Data), e.expected)
	}

	if buf.Format != nil && buf.Format.SampleRate != e.cfg.SampleRate {
		return nil, fmt.Errorf("%w: buffer sample rate %d, extractor expects %d", ErrInvalidBufferLength, buf.Format.SampleRate, e.cfg.SampleRate)
	}

	samples := peakNormalize(buf.Data)

	numFrames := 1 + (len(samples)-e.cfg.FFTSize)/e.cfg.HopSize
	numCoeff := e.cfg.NumCoefficients

	sum := make([]float64, numCoeff)
	sumSq := make([]float64, numCoeff)
	frame := make([]float64, e.cfg.FFTSize)
	power := make([]float64, e.cfg.FFTSize/2+1)
	logMel := make([]float64, e.cfg.NumMels)

	for t := 0; t < numFrames; t++ {
		start := t * e.cfg.HopSize

		for i := 0; i < e.cfg.FFTSize; i++ {
			frame[i] = samples[start+i] * e.hamming[i]
		}

		spectrum := fft.FFTReal(frame)

		for i := range power {
			re := real(spectrum[i])
			im := imag(spectrum[i])
			power[i] = re*re + im*im
		}

		for m := 0; m < e.cfg.NumMels; m++ {
			acc := 0.0
			for k, w := range e.melBank[m] {
				if w != 0 {
					acc += w * power[k]
				}
			}

			if acc < logFloor {
				acc = logFloor
			}

			logMel[m] = math.Log(acc)
		}

		for c := 0; c < numCoeff; c++ {
			acc := 0.0
			for m, w := range e.dctTable[c] {
				acc += w * logMel[m]
			}

			sum[c] += acc
			sumSq[c] += acc * acc
		}
	}

	vector := make([]float64, e.Dimensionality())
	n := float64(numFrames)

	for c := 0; c < numCoeff; c++ {
		mean := sum[c] / n
		vector[c] = mean

		if e.cfg.Aggregation == AggregationMeanVariance {
			vector[numCoeff+c] = sumSq[c]/n - mean*mean
		}
	}

	return vector, nil
}

// peakNormalize scales samples so the largest magnitude is 1, matching the
// normalization applied when training data was prepared. Silent buffers are
// returned unscaled.
func peakNormalize(data []float64) []float64 {
	peak := 0.0
	for _, s := range data {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}

	out := make([]float64, len(data))

	if peak == 0 {
		copy(out, data)

		return out
	}

	for i, s := range data {
		out[i] = s / peak
	}

	return out
}
