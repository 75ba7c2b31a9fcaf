package app

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wavcap/wavcap/internal/audio"
	"github.com/wavcap/wavcap/internal/config"
	"github.com/wavcap/wavcap/internal/transcribe"
	"github.com/wavcap/wavcap/internal/wav"
)

// Mock implementations for testing
type mockSource struct {
	onBlock audio.BlockFunc
	closed  int
}

func (m *mockSource) Open(deviceID string, format audio.Format, onBlock audio.BlockFunc) (audio.Format, error) {
	m.onBlock = onBlock
	return format, nil
}

func (m *mockSource) Start() error {
	return nil
}

func (m *mockSource) Close() error {
	m.closed++
	return nil
}

func (m *mockSource) ListDevices() ([]audio.Device, error) {
	return []audio.Device{{ID: "default", Name: "Default", Default: true}}, nil
}

func (m *mockSource) deliver(frames int) {
	left := make([]float32, frames)
	right := make([]float32, frames)
	m.onBlock([][]float32{left, right})
}

type mockTranscriber struct {
	transcribeErr  error
	summarizeErr   error
	gotFilename    string
	gotWAVBytes    int
	summarizeCalls int
}

func (m *mockTranscriber) Transcribe(ctx context.Context, wavData []byte, filename string) (*transcribe.Result, error) {
	m.gotFilename = filename
	m.gotWAVBytes = len(wavData)
	if m.transcribeErr != nil {
		return nil, m.transcribeErr
	}
	return &transcribe.Result{Text: "the transcript"}, nil
}

func (m *mockTranscriber) Summarize(ctx context.Context, text string) (string, error) {
	m.summarizeCalls++
	if m.summarizeErr != nil {
		return "", m.summarizeErr
	}
	return "the summary", nil
}

func newTestApp(t *testing.T, stt Transcriber, summarize bool) (*App, *mockSource) {
	t.Helper()

	src := &mockSource{}
	session := audio.NewSession(src, "", zerolog.Nop())
	if err := session.Initialize(audio.DefaultFormat()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	cfg := &config.Config{
		Audio: config.AudioConfig{SampleRate: 44100, Channels: 2},
		Transcribe: config.TranscribeConfig{
			Summarize: summarize,
		},
		Output: config.OutputConfig{
			Dir: t.TempDir(),
		},
	}

	application := New(Config{
		Session:     session,
		Transcriber: stt,
		Config:      cfg,
		Logger:      zerolog.Nop(),
	})

	return application, src
}

func TestStopAndSaveWritesWAVFile(t *testing.T) {
	application, src := newTestApp(t, nil, false)

	if err := application.Record(); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !application.IsRecording() {
		t.Error("app should be recording after Record")
	}

	src.deliver(1024)

	rec, err := application.StopAndSave(context.Background())
	if err != nil {
		t.Fatalf("stop and save failed: %v", err)
	}
	if application.IsRecording() {
		t.Error("app should not be recording after StopAndSave")
	}

	if !strings.HasPrefix(rec.Filename, "recording_") || !strings.HasSuffix(rec.Filename, ".wav") {
		t.Errorf("unexpected filename: %q", rec.Filename)
	}

	data, err := readFile(rec.Path)
	if err != nil {
		t.Fatalf("failed to read saved recording: %v", err)
	}
	if len(data) != rec.Size {
		t.Errorf("expected %d bytes on disk, got %d", rec.Size, len(data))
	}

	info, err := wav.Parse(data)
	if err != nil {
		t.Fatalf("saved file is not a valid WAV: %v", err)
	}
	if info.Frames != 1024 {
		t.Errorf("expected 1024 frames, got %d", info.Frames)
	}
}

func TestStopAndSaveWithoutRecordingFails(t *testing.T) {
	application, _ := newTestApp(t, nil, false)

	if _, err := application.StopAndSave(context.Background()); !errors.Is(err, audio.ErrNotRecording) {
		t.Errorf("expected ErrNotRecording, got %v", err)
	}
}

func TestPauseResumeThroughApp(t *testing.T) {
	application, src := newTestApp(t, nil, false)
	application.Record()

	src.deliver(100)
	if err := application.Pause(); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	src.deliver(100)
	if err := application.Resume(); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	src.deliver(100)

	rec, err := application.StopAndSave(context.Background())
	if err != nil {
		t.Fatalf("stop and save failed: %v", err)
	}

	data, _ := readFile(rec.Path)
	info, _ := wav.Parse(data)
	if info.Frames != 200 {
		t.Errorf("expected 200 frames (paused audio dropped), got %d", info.Frames)
	}
}

func TestStopAndSaveHandsOffToTranscriber(t *testing.T) {
	stt := &mockTranscriber{}
	application, src := newTestApp(t, stt, true)
	application.Record()
	src.deliver(256)

	rec, err := application.StopAndSave(context.Background())
	if err != nil {
		t.Fatalf("stop and save failed: %v", err)
	}

	if stt.gotFilename != rec.Filename {
		t.Errorf("transcriber got filename %q, recording saved as %q", stt.gotFilename, rec.Filename)
	}
	if stt.gotWAVBytes != rec.Size {
		t.Errorf("transcriber got %d bytes, recording is %d", stt.gotWAVBytes, rec.Size)
	}
	if rec.Transcript != "the transcript" {
		t.Errorf("expected transcript relayed, got %q", rec.Transcript)
	}
	if rec.Summary != "the summary" {
		t.Errorf("expected summary relayed, got %q", rec.Summary)
	}
}

func TestTranscriptionFailureKeepsRecording(t *testing.T) {
	stt := &mockTranscriber{transcribeErr: errors.New("service down")}
	application, src := newTestApp(t, stt, true)
	application.Record()
	src.deliver(256)

	rec, err := application.StopAndSave(context.Background())
	if err != nil {
		t.Fatalf("transcription failure must not fail the save: %v", err)
	}
	if rec.Transcript != "" {
		t.Errorf("expected empty transcript, got %q", rec.Transcript)
	}
	if stt.summarizeCalls != 0 {
		t.Error("summarize should not run without a transcript")
	}

	if _, err := readFile(rec.Path); err != nil {
		t.Errorf("recording should still be on disk: %v", err)
	}
}

func TestSummarizeSkippedWhenDisabled(t *testing.T) {
	stt := &mockTranscriber{}
	application, src := newTestApp(t, stt, false)
	application.Record()
	src.deliver(64)

	rec, err := application.StopAndSave(context.Background())
	if err != nil {
		t.Fatalf("stop and save failed: %v", err)
	}
	if stt.summarizeCalls != 0 {
		t.Errorf("expected no summarize calls, got %d", stt.summarizeCalls)
	}
	if rec.Summary != "" {
		t.Errorf("expected no summary, got %q", rec.Summary)
	}
}

func TestShutdownSalvagesRecording(t *testing.T) {
	application, src := newTestApp(t, nil, false)
	application.Record()
	src.deliver(512)

	if err := application.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if src.closed != 1 {
		t.Errorf("expected device released once, got %d", src.closed)
	}
	if application.IsRecording() {
		t.Error("app should not be recording after shutdown")
	}
}

func TestShutdownIdleReleasesDevice(t *testing.T) {
	application, src := newTestApp(t, nil, false)

	if err := application.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if src.closed != 1 {
		t.Errorf("expected device released once, got %d", src.closed)
	}
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
