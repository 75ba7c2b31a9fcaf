package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// framesPerBlock is the device block size requested per callback
// invocation. Constant for the life of a session; the exact value is not
// significant beyond being consistent.
const framesPerBlock = 4096

// PortAudioSource is a PortAudio-backed Source. PortAudio hands back the
// raw device signal: no echo cancellation, noise suppression, or automatic
// gain control is applied, which keeps the capture lossless.
type PortAudioSource struct {
	stream      *portaudio.Stream
	initialized bool
}

// NewPortAudioSource initializes the PortAudio runtime and returns a
// source. Call Terminate when the process is done with audio entirely.
func NewPortAudioSource() (*PortAudioSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &PortAudioSource{initialized: true}, nil
}

func (p *PortAudioSource) Open(deviceID string, format Format, onBlock BlockFunc) (Format, error) {
	if p.stream != nil {
		return Format{}, fmt.Errorf("audio stream already open")
	}

	// Find device
	var device *portaudio.DeviceInfo
	if deviceID == "" {
		var err error
		device, err = portaudio.DefaultInputDevice()
		if err != nil {
			return Format{}, fmt.Errorf("failed to get default input device: %w", err)
		}
	} else {
		devices, err := portaudio.Devices()
		if err != nil {
			return Format{}, fmt.Errorf("failed to enumerate devices: %w", err)
		}
		for _, d := range devices {
			if d.Name == deviceID {
				device = d
				break
			}
		}
	}

	if device == nil {
		return Format{}, fmt.Errorf("device not found: %s", deviceID)
	}

	// Non-interleaved stream: the callback receives one slice per channel.
	// It runs on PortAudio's thread and must return quickly, it competes
	// with hardware timing.
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: format.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(format.SampleRate),
		FramesPerBuffer: framesPerBlock,
	}, func(in [][]float32) {
		onBlock(in)
	})
	if err != nil {
		return Format{}, fmt.Errorf("failed to open audio stream: %w", err)
	}

	p.stream = stream

	// The device may not honor the requested rate; the opened stream's
	// actual rate is authoritative for encoding.
	actual := format
	if info := stream.Info(); info != nil && info.SampleRate > 0 {
		actual.SampleRate = int(info.SampleRate)
	}

	return actual, nil
}

func (p *PortAudioSource) Start() error {
	if p.stream == nil {
		return fmt.Errorf("audio stream not open")
	}
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("failed to start audio stream: %w", err)
	}
	return nil
}

func (p *PortAudioSource) Close() error {
	if p.stream == nil {
		return nil
	}
	err := p.stream.Close()
	p.stream = nil
	if err != nil {
		return fmt.Errorf("failed to close audio stream: %w", err)
	}
	return nil
}

func (p *PortAudioSource) ListDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]Device, 0, len(devices))
	defaultDevice, _ := portaudio.DefaultInputDevice()

	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, Device{
				ID:      d.Name,
				Name:    d.Name,
				Default: d == defaultDevice,
			})
		}
	}

	return result, nil
}

// Terminate releases any open stream and shuts down the PortAudio runtime.
// Safe to call more than once.
func (p *PortAudioSource) Terminate() {
	p.Close()
	if p.initialized {
		portaudio.Terminate()
		p.initialized = false
	}
}
