package capture

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-audio/audio"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/afero"
	"github.com/zenwerk/go-wave"
)

const defaultChunkSize = 1024

type micImpl struct {
	cfg          Config
	audioRunning bool
}

type Config struct {
	SampleRate int
	Duration   float64

	// DeviceIndex selects an input device from Devices(); -1 uses the
	// system default.
	DeviceIndex int

	// ChunkSize is the portaudio read size in frames.
	ChunkSize int

	// DumpFs and DumpDir, when both set, write every captured window as a
	// 16-bit wav file for diagnostics.
	DumpFs  afero.Fs
	DumpDir string
}

// NewMic opens the portaudio backend. Close must be called to release it.
func NewMic(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRate)
	}

	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %g", cfg.Duration)
	}

	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = defaultChunkSize
	}

	err := portaudio.Initialize()
	if err != nil {
		return nil, fmt.Errorf("%w: initialize: %v", ErrDevice, err)
	}

	return &micImpl{
		cfg:          *cfg,
		audioRunning: true,
	}, nil
}

func (m *micImpl) Close() error {
	if !m.audioRunning {
		return nil
	}

	m.audioRunning = false

	err := portaudio.Terminate()
	if err != nil {
		return fmt.Errorf("%w: terminate: %v", ErrDevice, err)
	}

	return nil
}

// Capture records exactly SampleRate x Duration samples from the input
// device and returns them as normalized floats. The context is consulted
// before the stream opens, never mid-window.
func (m *micImpl) Capture(ctx context.Context) (*audio.FloatBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := int(float64(m.cfg.SampleRate) * m.cfg.Duration)
	in := make([]int16, m.cfg.ChunkSize)

	stream, err := m.openStream(in)
	if err != nil {
		return nil, fmt.Errorf("%w: open stream: %v", ErrDevice, err)
	}

	defer stream.Close()

	err = stream.Start()
	if err != nil {
		return nil, fmt.Errorf("%w: start stream: %v", ErrDevice, err)
	}

	samples := make([]int16, 0, target+m.cfg.ChunkSize)

	for len(samples) < target {
		err = stream.Read()
		if err != nil {
			return nil, fmt.Errorf("%w: read stream: %v", ErrDevice, err)
		}

		samples = append(samples, in...)
	}

	err = stream.Stop()
	if err != nil {
		return nil, fmt.Errorf("%w: stop stream: %v", ErrDevice, err)
	}

	samples = samples[:target]

	if m.cfg.DumpFs != nil && m.cfg.DumpDir != "" {
		m.dump(samples)
	}

	data := make([]float64, target)
	for i, s := range samples {
		data[i] = float64(s) / 32768.0
	}

	return &audio.FloatBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  m.cfg.SampleRate,
		},
		Data: data,
	}, nil
}

func (m *micImpl) openStream(in []int16) (*portaudio.Stream, error) {
	if m.cfg.DeviceIndex < 0 {
		return portaudio.OpenDefaultStream(1, 0, float64(m.cfg.SampleRate), len(in), in)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	if m.cfg.DeviceIndex >= len(devices) {
		return nil, fmt.Errorf("device index %d out of range (%d devices)", m.cfg.DeviceIndex, len(devices))
	}

	params := portaudio.HighLatencyParameters(devices[m.cfg.DeviceIndex], nil)
	params.Input.Channels = 1
	params.SampleRate = float64(m.cfg.SampleRate)
	params.FramesPerBuffer = len(in)

	return portaudio.OpenStream(params, in)
}

// dump writes the captured window to a timestamped wav file. Failures are
// logged and never fail the capture.
func (m *micImpl) dump(samples []int16) {
	name := m.cfg.DumpDir + "/capture" + strconv.Itoa(int(time.Now().Unix())) + ".wav"

	waveFile, err := m.cfg.DumpFs.Create(name)
	if err != nil {
		log.Printf("error creating dump file: %v", err)

		return
	}

	param := wave.WriterParam{
		Out:           waveFile,
		Channel:       1,
		SampleRate:    m.cfg.SampleRate,
		BitsPerSample: 16,
	}

	waveWriter, err := wave.NewWriter(param)
	if err != nil {
		log.Printf("error creating dump writer: %v", err)

		return
	}

	defer waveWriter.Close()

	_, err = waveWriter.WriteSample16(samples)
	if err != nil {
		log.Printf("error writing dump: %v", err)
	}
}

// Device describes an input-capable audio device.
type Device struct {
	Index       int
	Name        string
	MaxChannels int
	SampleRate  float64
}

// Devices lists input-capable audio devices. It initializes and releases
// portaudio on its own, so it can run without an open Interface.
func Devices() ([]Device, error) {
	err := portaudio.Initialize()
	if err != nil {
		return nil, fmt.Errorf("%w: initialize: %v", ErrDevice, err)
	}

	defer func() {
		if termErr := portaudio.Terminate(); termErr != nil {
			log.Printf("error while freeing audio: %v", termErr)
		}
	}()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: list devices: %v", ErrDevice, err)
	}

	devices := make([]Device, 0, len(infos))

	for i, info := range infos {
		if info.MaxInputChannels < 1 {
			continue
		}

		devices = append(devices, Device{
			Index:       i,
			Name:        info.Name,
			MaxChannels: info.MaxInputChannels,
			SampleRate:  info.DefaultSampleRate,
		})
	}

	return devices, nil
}
