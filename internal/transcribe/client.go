// Package transcribe hands finished recordings to the external
// transcription and summarization services. The services are opaque
// collaborators: this client forwards the request and relays the response,
// nothing more. Failures surface to the caller; retry policy, if any,
// belongs there.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wavcap/wavcap/internal/wav"
)

// Config contains transcription client configuration
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration
}

// Result is the transcription service response
type Result struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

type summaryRequest struct {
	RequestID string `json:"request_id"`
	Text      string `json:"text"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

// Client posts WAV recordings to the transcription API
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a transcription client for the given endpoint
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}, nil
}

// Transcribe uploads one WAV recording as multipart form data and returns
// the transcript. wavData and filename are treated as opaque by the
// service; the file part is tagged audio/wav.
func (c *Client) Transcribe(ctx context.Context, wavData []byte, filename string) (*Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", wav.MIMEType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	if c.cfg.Model != "" {
		writer.WriteField("model", c.cfg.Model)
	}
	if c.cfg.Language != "" && c.cfg.Language != "auto" {
		writer.WriteField("language", c.cfg.Language)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/transcriptions", body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Request-ID", requestID)
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	c.log.Debug().
		Str("request_id", requestID).
		Str("filename", filename).
		Int("bytes", len(wavData)).
		Msg("Uploading recording for transcription")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("transcription failed: HTTP %d: %s", resp.StatusCode, snippet)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}

	c.log.Info().
		Str("request_id", requestID).
		Int("transcript_chars", len(result.Text)).
		Msg("Transcription complete")

	return &result, nil
}

// Summarize sends a transcript to the summarization service and returns
// the summary text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(summaryRequest{
		RequestID: uuid.NewString(),
		Text:      text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode summary request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/summaries", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("summary request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("summarization failed: HTTP %d: %s", resp.StatusCode, snippet)
	}

	var result summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode summary response: %w", err)
	}

	return result.Summary, nil
}
