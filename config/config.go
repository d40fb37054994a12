package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tbxark/voiceform/dialogue"
	"github.com/tbxark/voiceform/form"
)

type Config struct {
	LogLevel   string       `json:"log_level" mapstructure:"log_level"`
	Locale     string       `json:"locale" mapstructure:"locale"`
	LLM        LLMConfig    `json:"llm" mapstructure:"llm"`
	STT        STTConfig    `json:"stt" mapstructure:"stt"`
	Validation form.Rules   `json:"validation" mapstructure:"validation"`
	Store      StoreConfig  `json:"store" mapstructure:"store"`
	Server     ServerConfig `json:"server" mapstructure:"server"`
}

// LLMConfig points at an OpenAI-compatible chat endpoint; Ollama serves one
// under /v1.
type LLMConfig struct {
	BaseURL     string        `json:"base_url" mapstructure:"base_url"`
	APIKey      string        `json:"api_key" mapstructure:"api_key"`
	Model       string        `json:"model" mapstructure:"model"`
	Temperature float32       `json:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
	// Romanize turns on English spelling of names in finished records.
	Romanize bool `json:"romanize" mapstructure:"romanize"`
}

const (
	STTWhisperCpp = "whispercpp"
	STTOpenAI     = "openai"
)

type STTConfig struct {
	Backend  string        `json:"backend" mapstructure:"backend"`
	URL      string        `json:"url" mapstructure:"url"`
	APIKey   string        `json:"api_key" mapstructure:"api_key"`
	Model    string        `json:"model" mapstructure:"model"`
	Language string        `json:"language" mapstructure:"language"`
	BeamSize int           `json:"beam_size" mapstructure:"beam_size"`
	VAD      bool          `json:"vad" mapstructure:"vad"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type StoreConfig struct {
	Backend   string        `json:"backend" mapstructure:"backend"`
	Namespace string        `json:"namespace" mapstructure:"namespace"`
	TTL       time.Duration `json:"ttl" mapstructure:"ttl"`
	Redis     RedisConfig   `json:"redis" mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `json:"addr" mapstructure:"addr"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`
}

type ServerConfig struct {
	Addr           string        `json:"addr" mapstructure:"addr"`
	MaxUploadBytes int64         `json:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	ReadTimeout    time.Duration `json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if err := c.Validation.Check(); err != nil {
		return err
	}
	if _, err := dialogue.LocaleByName(c.Locale); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LLM.BaseURL == "" || c.LLM.Model == "" {
		return fmt.Errorf("llm.base_url and llm.model are required")
	}
	switch c.STT.Backend {
	case STTWhisperCpp, STTOpenAI:
	default:
		return fmt.Errorf("stt.backend must be %q or %q, got %q", STTWhisperCpp, STTOpenAI, c.STT.Backend)
	}
	switch c.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis store")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", StoreMemory, StoreRedis, c.Store.Backend)
	}
	if c.Store.TTL < 0 {
		return fmt.Errorf("store.ttl must not be negative")
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
