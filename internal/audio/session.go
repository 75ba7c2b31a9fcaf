package audio

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/wavcap/wavcap/internal/wav"
)

// Session owns the hardware audio tap and an append-only sample buffer.
// State transitions (Initialize/Start/Pause/Resume/Stop/Cleanup) must be
// invoked from a single control goroutine; the device callback is the only
// other writer and is serialized against transitions by the session mutex.
//
// The buffer grows without bound for the life of a recording. That is the
// cost of losslessness; duration is caller-controlled.
type Session struct {
	source   Source
	deviceID string
	log      zerolog.Logger

	mu     sync.Mutex
	state  State
	format Format // negotiated, authoritative for encoding
	chunks [][]float32
}

// NewSession creates a session bound to the given source. deviceID may be
// empty to use the system default input device.
func NewSession(source Source, deviceID string, logger zerolog.Logger) *Session {
	return &Session{
		source:   source,
		deviceID: deviceID,
		log:      logger,
	}
}

// Initialize acquires the input device with the given format hints and
// begins listening. The device may negotiate a different sample rate; the
// negotiated format is what later encoding uses. A failed Initialize leaves
// the session Uninitialized and safe to retry.
func (s *Session) Initialize(format Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized {
		return ErrAlreadyInitialized
	}

	format = format.withDefaults()

	actual, err := s.source.Open(s.deviceID, format, s.onBlock)
	if err != nil {
		return &DeviceAccessError{Err: err}
	}

	if err := s.source.Start(); err != nil {
		s.source.Close()
		return &DeviceAccessError{Err: err}
	}

	if actual.SampleRate != format.SampleRate {
		s.log.Info().
			Int("requested_hz", format.SampleRate).
			Int("negotiated_hz", actual.SampleRate).
			Msg("Device negotiated a different sample rate")
	}

	s.format = actual
	s.state = StateInitialized

	s.log.Debug().
		Int("sample_rate", actual.SampleRate).
		Int("channels", actual.Channels).
		Msg("Capture session initialized")

	return nil
}

// Start begins a new recording with an empty buffer. Valid from
// Initialized or Stopped.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateUninitialized:
		return ErrNotInitialized
	case StateRecording, StatePaused:
		return ErrAlreadyRecording
	}

	s.chunks = nil
	s.state = StateRecording
	s.log.Info().Msg("Recording started")
	return nil
}

// Pause suspends buffering. The device keeps delivering blocks; they are
// dropped until Resume.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return ErrNotRecording
	}
	s.state = StatePaused
	s.log.Info().Msg("Recording paused")
	return nil
}

// Resume continues buffering after a Pause.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePaused {
		return ErrNotPaused
	}
	s.state = StateRecording
	s.log.Info().Msg("Recording resumed")
	return nil
}

// Stop ends the recording and returns the accumulated audio encoded as a
// WAV buffer. The buffer is cleared; the session can Start again. A
// recording with no delivered blocks still yields a valid empty WAV file.
func (s *Session) Stop() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording && s.state != StatePaused {
		return nil, ErrNotRecording
	}

	data := wav.Encode(s.chunks, s.format.SampleRate, s.format.Channels)
	frames := (len(data) - wav.HeaderSize) / (s.format.Channels * 2)

	s.chunks = nil
	s.state = StateStopped

	s.log.Info().
		Int("frames", frames).
		Int("bytes", len(data)).
		Msg("Recording stopped")

	return data, nil
}

// Cleanup releases the device regardless of state and discards any
// buffered audio. Safe to call multiple times and from any state; a
// mid-recording Cleanup is an abrupt stop, not a graceful one.
func (s *Session) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateUninitialized {
		return
	}

	if err := s.source.Close(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to release audio device")
	}

	s.chunks = nil
	s.state = StateUninitialized
	s.log.Debug().Msg("Capture session cleaned up")
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Format returns the negotiated format. Zero value until Initialize.
func (s *Session) Format() Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

// onBlock is the device callback. It runs on the audio subsystem's thread,
// so it only takes the mutex, appends, and returns.
func (s *Session) onBlock(block [][]float32) {
	s.mu.Lock()
	if s.state == StateRecording {
		s.chunks = append(s.chunks, interleave(block))
	}
	s.mu.Unlock()
}

// interleave flattens per-channel sample slices into frame order: one
// sample per channel for frame 0, then frame 1, and so on. Channel slices
// are assumed equal length (one device block).
func interleave(block [][]float32) []float32 {
	channels := len(block)
	if channels == 0 {
		return nil
	}
	if channels == 1 {
		out := make([]float32, len(block[0]))
		copy(out, block[0])
		return out
	}

	frames := len(block[0])
	out := make([]float32, 0, frames*channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out = append(out, block[c][i])
		}
	}
	return out
}
