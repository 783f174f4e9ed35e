package features

import (
	"errors"
	"math"
	"testing"

	"github.com/go-audio/audio"
)

func testConfig() Config {
	return Config{
		SampleRate:      8000,
		Duration:        0.5,
		FFTSize:         512,
		HopSize:         256,
		NumMels:         26,
		NumCoefficients: 13,
		Aggregation:     AggregationMean,
	}
}

func sineBuffer(cfg Config, freq float64) *audio.FloatBuffer {
	n := int(float64(cfg.SampleRate) * cfg.Duration)
	data := make([]float64, n)

	for i := range data {
		data[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(cfg.SampleRate))
	}

	return &audio.FloatBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  cfg.SampleRate,
		},
		Data: data,
	}
}

func TestExtractor_ShapeInvariant(t *testing.T) {
	t.Run("mean aggregation yields one value per coefficient", func(t *testing.T) {
		extractor, err := New(testConfig())
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		vector, err := extractor.Extract(sineBuffer(testConfig(), 440))
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}

		if len(vector) != 13 {
			t.Errorf("expected 13 values, got %d", len(vector))
		}

		if len(vector) != extractor.Dimensionality() {
			t.Errorf("Dimensionality() = %d, vector has %d", extractor.Dimensionality(), len(vector))
		}
	})

	t.Run("mean+variance doubles the dimensionality", func(t *testing.T) {
		cfg := testConfig()
		cfg.Aggregation = AggregationMeanVariance

		extractor, err := New(cfg)
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		vector, err := extractor.Extract(sineBuffer(cfg, 440))
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}

		if len(vector) != 26 {
			t.Errorf("expected 26 values, got %d", len(vector))
		}

		// variances must not be negative
		for i := 13; i < 26; i++ {
			if vector[i] < -1e-9 {
				t.Errorf("variance %d is negative: %f", i, vector[i])
			}
		}
	})
}

func TestExtractor_Deterministic(t *testing.T) {
	extractor, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := extractor.Extract(sineBuffer(testConfig(), 880))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	second, err := extractor.Extract(sineBuffer(testConfig(), 880))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("coefficient %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestExtractor_InvalidBufferLength(t *testing.T) {
	extractor, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Run("short buffer", func(t *testing.T) {
		short := sineBuffer(testConfig(), 440)
		short.Data = short.Data[:100]

		_, err := extractor.Extract(short)
		if !errors.Is(err, ErrInvalidBufferLength) {
			t.Errorf("expected ErrInvalidBufferLength, got %v", err)
		}
	})

	t.Run("nil buffer", func(t *testing.T) {
		_, err := extractor.Extract(nil)
		if !errors.Is(err, ErrInvalidBufferLength) {
			t.Errorf("expected ErrInvalidBufferLength, got %v", err)
		}
	})

	t.Run("sample rate mismatch", func(t *testing.T) {
		buffer := sineBuffer(testConfig(), 440)
		buffer.Format.SampleRate = 16000

		_, err := extractor.Extract(buffer)
		if !errors.Is(err, ErrInvalidBufferLength) {
			t.Errorf("expected ErrInvalidBufferLength, got %v", err)
		}
	})
}

func TestExtractor_SilentBuffer(t *testing.T) {
	extractor, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	silent := sineBuffer(testConfig(), 440)
	for i := range silent.Data {
		silent.Data[i] = 0
	}

	vector, err := extractor.Extract(silent)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// all-zero input hits the log floor, never NaN or Inf
	for i, v := range vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("coefficient %d is not finite: %v", i, v)
		}
	}
}

func TestExtractor_DistinguishesFrequencies(t *testing.T) {
	extractor, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	low, err := extractor.Extract(sineBuffer(testConfig(), 200))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	high, err := extractor.Extract(sineBuffer(testConfig(), 3000))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	distance := 0.0
	for i := range low {
		distance += (low[i] - high[i]) * (low[i] - high[i])
	}

	if math.Sqrt(distance) < 1 {
		t.Errorf("expected distinct vectors for distinct tones, distance %f", math.Sqrt(distance))
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"fft size not power of two", func(c *Config) { c.FFTSize = 500 }},
		{"hop larger than fft", func(c *Config) { c.HopSize = 1024 }},
		{"zero mels", func(c *Config) { c.NumMels = 0 }},
		{"more coefficients than mels", func(c *Config) { c.NumCoefficients = 27 }},
		{"unknown aggregation", func(c *Config) { c.Aggregation = "median" }},
		{"window shorter than one frame", func(c *Config) { c.Duration = 0.01 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)

			_, err := New(cfg)
			if err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestMelFilterBank(t *testing.T) {
	bank := melFilterBank(26, 512, 8000, 0, 4000)

	if len(bank) != 26 {
		t.Fatalf("expected 26 filters, got %d", len(bank))
	}

	halfFFT := 512/2 + 1
	for i, filter := range bank {
		if len(filter) != halfFFT {
			t.Fatalf("filter %d: expected %d bins, got %d", i, halfFFT, len(filter))
		}

		hasNonZero := false
		for _, v := range filter {
			if v > 0 {
				hasNonZero = true
				break
			}
		}

		if !hasNonZero {
			t.Errorf("filter %d is all zeros", i)
		}
	}
}

func TestMelConversion(t *testing.T) {
	// HTK mel scale: 2595 * log10(1 + f/700)
	mel := hzToMel(1000)
	if math.Abs(mel-1000.45) > 1.0 {
		t.Errorf("hzToMel(1000) = %f, want ~1000.45", mel)
	}

	hz := melToHz(mel)
	if math.Abs(hz-1000) > 0.1 {
		t.Errorf("melToHz(hzToMel(1000)) = %f, want 1000", hz)
	}
}

func TestDCTOrthonormal(t *testing.T) {
	table := dctII(13, 26)

	// rows of an orthonormal DCT have unit norm
	for k, row := range table {
		norm := 0.0
		for _, v := range row {
			norm += v * v
		}

		if math.Abs(norm-1) > 1e-9 {
			t.Errorf("row %d has norm %f, want 1", k, norm)
		}
	}
}
