// Package openaistt transcribes audio through an OpenAI-compatible
// /v1/audio/transcriptions endpoint.
package openaistt

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tbxark/voiceform/stt"
)

const DefaultModel = "whisper-1"

var _ stt.Transcriber = (*Client)(nil)

type Client struct {
	client   oai.Client
	model    string
	language string
}

type config struct {
	baseURL  string
	language string
	timeout  time.Duration
}

type Option func(*config)

// WithBaseURL points the client at a self-hosted server such as
// faster-whisper-server.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

func WithLanguage(lang string) Option {
	return func(c *config) {
		c.language = lang
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

func New(apiKey, model string, opts ...Option) *Client {
	if model == "" {
		model = DefaultModel
	}
	cfg := &config{language: "th"}
	for _, o := range opts {
		o(cfg)
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}
	return &Client{
		client:   oai.NewClient(reqOpts...),
		model:    model,
		language: cfg.language,
	}
}

func (c *Client) Transcribe(ctx context.Context, audio stt.Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", fmt.Errorf("openai stt: %w", stt.ErrEmptyAudio)
	}
	params := oai.AudioTranscriptionNewParams{
		File:        oai.File(bytes.NewReader(audio.Data), audio.FileName(), "application/octet-stream"),
		Model:       oai.AudioModel(c.model),
		Temperature: oai.Float(0),
	}
	if c.language != "" {
		params.Language = oai.String(c.language)
	}
	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai stt: %w", err)
	}
	return stt.NormalizeTranscript(resp.Text), nil
}
