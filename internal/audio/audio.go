package audio

import (
	"errors"
	"fmt"
)

// State is the capture session lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateRecording
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Session state machine misuse errors. These surface immediately to the
// caller of the violating operation and are never retried internally.
var (
	ErrAlreadyInitialized = errors.New("capture session already initialized")
	ErrNotInitialized     = errors.New("capture session not initialized")
	ErrAlreadyRecording   = errors.New("capture session already recording")
	ErrNotRecording       = errors.New("capture session not recording")
	ErrNotPaused          = errors.New("capture session not paused")
)

// DeviceAccessError wraps a failure to acquire the input device, either
// because permission was denied or because no usable device exists.
type DeviceAccessError struct {
	Err error
}

func (e *DeviceAccessError) Error() string {
	return fmt.Sprintf("device access failed: %v", e.Err)
}

func (e *DeviceAccessError) Unwrap() error {
	return e.Err
}

// Format holds the audio format parameters for one capture session.
// It is fixed for the lifetime of a session; changing format requires
// a new session.
type Format struct {
	SampleRate int // Hz
	Channels   int
	BitDepth   int // output bit depth; only 16-bit PCM is produced
}

// DefaultFormat returns the standard capture format: 44.1kHz stereo, 16-bit.
func DefaultFormat() Format {
	return Format{SampleRate: 44100, Channels: 2, BitDepth: 16}
}

func (f Format) withDefaults() Format {
	if f.SampleRate <= 0 {
		f.SampleRate = 44100
	}
	if f.Channels <= 0 {
		f.Channels = 2
	}
	if f.BitDepth <= 0 {
		f.BitDepth = 16
	}
	return f
}

// BlockFunc receives one block of per-channel samples from the device.
// It is invoked on the audio subsystem's own thread and must not block.
type BlockFunc func(block [][]float32)

// Source taps a hardware input device and delivers sample blocks to a
// registered callback for as long as the device is held open.
type Source interface {
	// Open acquires the input device with the given format hints and
	// registers the block callback. The returned format is what the device
	// actually negotiated and is authoritative for later encoding.
	Open(deviceID string, format Format, onBlock BlockFunc) (Format, error)

	// Start begins delivering blocks to the callback.
	Start() error

	// Close releases the device. Safe to call more than once.
	Close() error

	ListDevices() ([]Device, error)
}

// Device represents an audio input device.
type Device struct {
	ID      string
	Name    string
	Default bool
}
