package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

type Config struct {
	LogLevel   string           `json:"log_level"`
	Audio      AudioConfig      `json:"audio"`
	Transcribe TranscribeConfig `json:"transcribe"`
	Output     OutputConfig     `json:"output"`
}

type AudioConfig struct {
	DeviceID   string `json:"device_id"`   // empty = system default input
	SampleRate int    `json:"sample_rate"` // requested; device may negotiate
	Channels   int    `json:"channels"`
}

type TranscribeConfig struct {
	Endpoint       string `json:"endpoint"` // empty disables upload
	APIKey         string `json:"api_key"`
	Model          string `json:"model"`
	Language       string `json:"language"` // "auto" or ISO code
	TimeoutSeconds int    `json:"timeout_seconds"`
	Summarize      bool   `json:"summarize"`
}

type OutputConfig struct {
	Dir             string `json:"dir"`
	CopyToClipboard bool   `json:"copy_to_clipboard"`
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	path := configPath()

	// Default config
	cfg := &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			DeviceID:   "",
			SampleRate: 44100,
			Channels:   2,
		},
		Transcribe: TranscribeConfig{
			Endpoint:       "",
			Model:          "whisper-1",
			Language:       "auto",
			TimeoutSeconds: 30,
			Summarize:      false,
		},
		Output: OutputConfig{
			Dir:             RecordingsPath(),
			CopyToClipboard: false,
		},
	}

	// Load existing config if it exists
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := configPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "wavcap", "config.json")
}

// RecordingsPath returns the platform-specific default recordings directory
func RecordingsPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, "wavcap", "recordings")
}
