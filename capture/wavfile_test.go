package capture

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

func writeWav(t *testing.T, fileSys afero.Fs, path string, sampleRate int, samples []int) {
	t.Helper()

	file, err := fileSys.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}

	encoder := wav.NewEncoder(file, sampleRate, 16, 1, 1)

	err = encoder.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           samples,
		SourceBitDepth: 16,
	})
	if err != nil {
		t.Fatalf("write %s: %v", path, err)
	}

	err = encoder.Close()
	if err != nil {
		t.Fatalf("close %s: %v", path, err)
	}

	err = file.Close()
	if err != nil {
		t.Fatalf("close file %s: %v", path, err)
	}
}

func tonePCM(sampleRate int, seconds float64, freq float64) []int {
	n := int(float64(sampleRate) * seconds)
	samples := make([]int, n)

	for i := range samples {
		samples[i] = int(16000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}

	return samples
}

func TestFileSource_CaptureExactWindow(t *testing.T) {
	fileSys := afero.NewMemMapFs()
	writeWav(t, fileSys, "click.wav", 8000, tonePCM(8000, 0.5, 440))

	source, err := NewFile(&FileConfig{
		FileSys:    fileSys,
		Path:       "click.wav",
		SampleRate: 8000,
		Duration:   0.5,
	})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	buffer, err := source.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	if len(buffer.Data) != 4000 {
		t.Errorf("expected 4000 samples, got %d", len(buffer.Data))
	}

	for i, s := range buffer.Data {
		if s < -1 || s > 1 {
			t.Fatalf("sample %d out of range: %f", i, s)
		}
	}
}

func TestFileSource_PadsShortFiles(t *testing.T) {
	fileSys := afero.NewMemMapFs()
	writeWav(t, fileSys, "short.wav", 8000, tonePCM(8000, 0.1, 440))

	source, err := NewFile(&FileConfig{
		FileSys:    fileSys,
		Path:       "short.wav",
		SampleRate: 8000,
		Duration:   0.5,
	})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	buffer, err := source.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	if len(buffer.Data) != 4000 {
		t.Fatalf("expected 4000 samples, got %d", len(buffer.Data))
	}

	// tail is zero padding
	for i := 3500; i < 4000; i++ {
		if buffer.Data[i] != 0 {
			t.Fatalf("expected zero padding at %d, got %f", i, buffer.Data[i])
		}
	}
}

func TestFileSource_TruncatesLongFiles(t *testing.T) {
	fileSys := afero.NewMemMapFs()
	writeWav(t, fileSys, "long.wav", 8000, tonePCM(8000, 2, 440))

	source, err := NewFile(&FileConfig{
		FileSys:    fileSys,
		Path:       "long.wav",
		SampleRate: 8000,
		Duration:   0.5,
	})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	buffer, err := source.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	if len(buffer.Data) != 4000 {
		t.Errorf("expected 4000 samples, got %d", len(buffer.Data))
	}
}

func TestFileSource_SampleRateMismatch(t *testing.T) {
	fileSys := afero.NewMemMapFs()
	writeWav(t, fileSys, "wrong.wav", 16000, tonePCM(16000, 0.5, 440))

	source, err := NewFile(&FileConfig{
		FileSys:    fileSys,
		Path:       "wrong.wav",
		SampleRate: 8000,
		Duration:   0.5,
	})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	_, err = source.Capture(context.Background())
	if !errors.Is(err, ErrDevice) {
		t.Errorf("expected ErrDevice, got %v", err)
	}
}

func TestFileSource_InvalidFile(t *testing.T) {
	fileSys := afero.NewMemMapFs()

	err := afero.WriteFile(fileSys, "noise.wav", []byte("this is not a wav"), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	source, err := NewFile(&FileConfig{
		FileSys:    fileSys,
		Path:       "noise.wav",
		SampleRate: 8000,
		Duration:   0.5,
	})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	_, err = source.Capture(context.Background())
	if !errors.Is(err, ErrDevice) {
		t.Errorf("expected ErrDevice, got %v", err)
	}
}

func TestMixMono(t *testing.T) {
	t.Run("stereo averages channel pairs", func(t *testing.T) {
		mono := mixMono([]int{10, 20, 30, 50}, 2)

		expected := []int{15, 40}

		if len(mono) != len(expected) {
			t.Fatalf("expected %d frames, got %d", len(expected), len(mono))
		}

		for i := range expected {
			if mono[i] != expected[i] {
				t.Errorf("frame %d: expected %d, got %d", i, expected[i], mono[i])
			}
		}
	})

	t.Run("mono passes through", func(t *testing.T) {
		data := []int{1, 2, 3}
		mono := mixMono(data, 1)

		if len(mono) != 3 {
			t.Fatalf("expected 3 frames, got %d", len(mono))
		}
	})
}
