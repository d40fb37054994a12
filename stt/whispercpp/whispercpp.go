// Package whispercpp transcribes audio through a whisper.cpp server
// (examples/server, POST /inference).
package whispercpp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tbxark/voiceform/stt"
)

const (
	DefaultBaseURL  = "http://localhost:8080"
	defaultLanguage = "th"
	defaultBeamSize = 10
)

var _ stt.Transcriber = (*Client)(nil)

type Client struct {
	baseURL    string
	language   string
	model      string
	beamSize   int
	vad        bool
	httpClient *http.Client
}

type Option func(*Client)

func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// WithModel forwards a model name; the server uses its loaded model when empty.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

func WithBeamSize(n int) Option {
	return func(c *Client) {
		c.beamSize = n
	}
}

// WithVAD asks the server to drop non-speech segments before decoding.
func WithVAD(enabled bool) Option {
	return func(c *Client) {
		c.vad = enabled
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   defaultLanguage,
		beamSize:   defaultBeamSize,
		vad:        true,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Transcribe(ctx context.Context, audio stt.Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", fmt.Errorf("whisper: %w", stt.ErrEmptyAudio)
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", audio.FileName())
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(audio.Data); err != nil {
		return "", fmt.Errorf("whisper: write audio data: %w", err)
	}

	fields := [][2]string{
		{"response_format", "json"},
		{"temperature", "0"},
	}
	if c.language != "" {
		fields = append(fields, [2]string{"language", c.language})
	}
	if c.model != "" {
		fields = append(fields, [2]string{"model", c.model})
	}
	if c.beamSize > 0 {
		fields = append(fields, [2]string{"beam_size", strconv.Itoa(c.beamSize)})
	}
	if c.vad {
		fields = append(fields, [2]string{"vad", "true"})
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return "", fmt.Errorf("whisper: write %s field: %w", kv[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper: server returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result struct {
		Text  string `json:"text"`
		Error string `json:"error"`
	}
	if err := sonic.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("whisper: %s", result.Error)
	}
	return stt.NormalizeTranscript(result.Text), nil
}
