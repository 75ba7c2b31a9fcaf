package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wavcap/wavcap/internal/app"
	"github.com/wavcap/wavcap/internal/audio"
	"github.com/wavcap/wavcap/internal/config"
	"github.com/wavcap/wavcap/internal/logging"
	"github.com/wavcap/wavcap/internal/permissions"
	"github.com/wavcap/wavcap/internal/transcribe"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	listDevices := flag.Bool("list-devices", false, "list audio input devices and exit")
	flag.Parse()

	// Load config from XDG/Library/AppData
	cfg, err := config.Load()
	if err != nil {
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logging.NewWithLevel(cfg.LogLevel)

	// macOS requires explicit microphone approval before capture works
	if err := permissions.EnsureMicrophone(); err != nil {
		log.Fatal().Err(err).Msg("Required permissions not granted")
	}

	source, err := audio.NewPortAudioSource()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize audio")
	}
	defer source.Terminate()

	if *listDevices {
		devices, err := source.ListDevices()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list devices")
		}
		for _, d := range devices {
			marker := " "
			if d.Default {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, d.Name)
		}
		return
	}

	session := audio.NewSession(source, cfg.Audio.DeviceID, log)

	// Transcription is optional; without an endpoint the recording is only
	// written to disk.
	var transcriber app.Transcriber
	if cfg.Transcribe.Endpoint != "" {
		client, err := transcribe.NewClient(transcribe.Config{
			Endpoint: cfg.Transcribe.Endpoint,
			APIKey:   cfg.Transcribe.APIKey,
			Model:    cfg.Transcribe.Model,
			Language: cfg.Transcribe.Language,
			Timeout:  time.Duration(cfg.Transcribe.TimeoutSeconds) * time.Second,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create transcription client")
		}
		transcriber = client
	}

	application := app.New(app.Config{
		Session:     session,
		Transcriber: transcriber,
		Config:      cfg,
		Logger:      log,
	})

	if err := session.Initialize(audio.Format{
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to acquire microphone")
	}
	defer session.Cleanup()

	negotiated := session.Format()
	log.Info().
		Str("version", Version).
		Str("commit", Commit).
		Int("sample_rate", negotiated.SampleRate).
		Int("channels", negotiated.Channels).
		Msg("wavcap starting")

	if err := application.Record(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start recording")
	}

	fmt.Println("Recording. Commands: p=pause, r=resume, s=stop and save, q=discard and quit")

	// Interrupt discards the in-progress recording: abrupt stop, not a
	// graceful stop-and-return.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Interrupted, discarding recording")
		session.Cleanup()
		source.Terminate()
		os.Exit(1)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "p":
			if err := application.Pause(); err != nil {
				log.Error().Err(err).Msg("Pause failed")
			}
		case "r":
			if err := application.Resume(); err != nil {
				log.Error().Err(err).Msg("Resume failed")
			}
		case "s":
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			rec, err := application.StopAndSave(ctx)
			cancel()
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to save recording")
			}
			fmt.Printf("Saved %s (%d bytes)\n", rec.Path, rec.Size)
			if rec.Transcript != "" {
				fmt.Println("---")
				fmt.Println(rec.Transcript)
			}
			if rec.Summary != "" {
				fmt.Println("---")
				fmt.Println(rec.Summary)
			}
			return
		case "q":
			log.Info().Msg("Discarding recording")
			return
		}
	}
}
