package capture

import (
	"context"
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

type fileImpl struct {
	fileSys    afero.Fs
	path       string
	sampleRate int
	duration   float64
}

type FileConfig struct {
	FileSys    afero.Fs
	Path       string
	SampleRate int
	Duration   float64
}

// NewFile returns a source that reads one wav file instead of the mic.
// Shorter files are zero-padded to the capture window, longer files
// truncated; a sample-rate mismatch is an error since resampling would
// change the features.
func NewFile(cfg *FileConfig) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("path is empty")
	}

	if cfg.SampleRate <= 0 || cfg.Duration <= 0 {
		return nil, fmt.Errorf("sample rate and duration must be positive")
	}

	return &fileImpl{
		fileSys:    cfg.FileSys,
		path:       cfg.Path,
		sampleRate: cfg.SampleRate,
		duration:   cfg.Duration,
	}, nil
}

func (f *fileImpl) Capture(ctx context.Context) (*audio.FloatBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := f.fileSys.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDevice, f.path, err)
	}

	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid wav file", ErrDevice, f.path)
	}

	if int(decoder.SampleRate) != f.sampleRate {
		return nil, fmt.Errorf("%w: %s has sample rate %d, want %d", ErrDevice, f.path, decoder.SampleRate, f.sampleRate)
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrDevice, f.path, err)
	}

	mono := mixMono(pcm.Data, pcm.Format.NumChannels)

	target := int(float64(f.sampleRate) * f.duration)
	scale := float64(int(1) << (decoder.BitDepth - 1))
	data := make([]float64, target)

	for i := 0; i < target && i < len(mono); i++ {
		data[i] = float64(mono[i]) / scale
	}

	return &audio.FloatBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  f.sampleRate,
		},
		Data: data,
	}, nil
}

func (f *fileImpl) Close() error {
	return nil
}

// mixMono averages interleaved channels down to one.
func mixMono(data []int, channels int) []int {
	if channels <= 1 {
		return data
	}

	frames := len(data) / channels
	mono := make([]int, frames)

	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += data[i*channels+c]
		}

		mono[i] = sum / channels
	}

	return mono
}
