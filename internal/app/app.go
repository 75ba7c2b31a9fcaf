package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	"github.com/wavcap/wavcap/internal/audio"
	"github.com/wavcap/wavcap/internal/config"
	"github.com/wavcap/wavcap/internal/transcribe"
	"github.com/wavcap/wavcap/internal/wav"
)

// Transcriber is the external transcription/summarization collaborator.
// It receives a finished WAV buffer and filename as opaque inputs.
type Transcriber interface {
	Transcribe(ctx context.Context, wavData []byte, filename string) (*transcribe.Result, error)
	Summarize(ctx context.Context, text string) (string, error)
}

// Recording describes one finished, saved recording.
type Recording struct {
	Filename   string
	Path       string
	Size       int
	Transcript string
	Summary    string
}

type Config struct {
	Session     *audio.Session
	Transcriber Transcriber // Optional - can be nil
	Config      *config.Config
	Logger      zerolog.Logger
}

// App drives the capture session from the single control goroutine and
// handles the finished recording: write to disk, hand off for
// transcription, optionally copy the transcript to the clipboard.
type App struct {
	session *audio.Session
	stt     Transcriber
	cfg     *config.Config
	log     zerolog.Logger

	mu  sync.Mutex
	now func() time.Time
}

func New(cfg Config) *App {
	return &App{
		session: cfg.Session,
		stt:     cfg.Transcriber,
		cfg:     cfg.Config,
		log:     cfg.Logger,
		now:     time.Now,
	}
}

// Record starts a new recording with a fresh buffer.
func (a *App) Record() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Start()
}

// Pause suspends buffering without ending the recording.
func (a *App) Pause() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Pause()
}

// Resume continues a paused recording.
func (a *App) Resume() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Resume()
}

// IsRecording reports whether a recording is in progress (or paused).
func (a *App) IsRecording() bool {
	state := a.session.State()
	return state == audio.StateRecording || state == audio.StatePaused
}

// StopAndSave ends the recording, writes the WAV file to the output
// directory, and hands it to the transcription service when one is
// configured. Transcription failure does not lose the recording: the file
// is already on disk and the error is logged.
func (a *App) StopAndSave(ctx context.Context) (*Recording, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopAndSaveLocked(ctx)
}

func (a *App) stopAndSaveLocked(ctx context.Context) (*Recording, error) {
	data, err := a.session.Stop()
	if err != nil {
		return nil, err
	}

	filename := wav.Filename(a.now())

	if err := os.MkdirAll(a.cfg.Output.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(a.cfg.Output.Dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write recording: %w", err)
	}

	rec := &Recording{
		Filename: filename,
		Path:     path,
		Size:     len(data),
	}

	a.log.Info().Str("path", path).Int("bytes", rec.Size).Msg("Recording saved")

	if a.stt == nil {
		return rec, nil
	}

	result, err := a.stt.Transcribe(ctx, data, filename)
	if err != nil {
		a.log.Error().Err(err).Msg("Transcription failed")
		return rec, nil
	}
	rec.Transcript = result.Text

	if a.cfg.Transcribe.Summarize && rec.Transcript != "" {
		summary, err := a.stt.Summarize(ctx, rec.Transcript)
		if err != nil {
			a.log.Error().Err(err).Msg("Summarization failed")
		} else {
			rec.Summary = summary
		}
	}

	if a.cfg.Output.CopyToClipboard && rec.Transcript != "" {
		if err := clipboard.WriteAll(rec.Transcript); err != nil {
			a.log.Error().Err(err).Msg("Failed to copy transcript to clipboard")
		}
	}

	return rec, nil
}

// Shutdown salvages an in-progress recording and releases the device.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if state := a.session.State(); state == audio.StateRecording || state == audio.StatePaused {
		if _, err := a.stopAndSaveLocked(ctx); err != nil {
			a.log.Error().Err(err).Msg("Failed to save recording during shutdown")
		}
	}

	a.session.Cleanup()
	return nil
}
