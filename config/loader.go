package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "VOICEFORM"

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("locale", "th")

	v.SetDefault("llm.base_url", "http://localhost:11434/v1")
	v.SetDefault("llm.api_key", "ollama")
	v.SetDefault("llm.model", "qwen2.5:7b-instruct")
	v.SetDefault("llm.temperature", 0)
	v.SetDefault("llm.timeout", "120s")
	v.SetDefault("llm.romanize", true)

	v.SetDefault("stt.backend", STTWhisperCpp)
	v.SetDefault("stt.url", "http://localhost:8080")
	v.SetDefault("stt.api_key", "")
	v.SetDefault("stt.model", "")
	v.SetDefault("stt.language", "th")
	v.SetDefault("stt.beam_size", 10)
	v.SetDefault("stt.vad", true)
	v.SetDefault("stt.timeout", "120s")

	v.SetDefault("validation.name_denylist", []string{"นับสกุน", "นามสกุล", "ชื่อ"})
	v.SetDefault("validation.genders", []string{"male", "female"})
	v.SetDefault("validation.plate_formats", []string{"latin", "thai"})

	v.SetDefault("store.backend", StoreMemory)
	v.SetDefault("store.namespace", "voiceform")
	v.SetDefault("store.ttl", "0s")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "300s")
}

// Load reads configuration from path, or from voiceform.{yaml,json,toml} in
// the working directory or ./configs when path is empty. Environment
// variables such as VOICEFORM_LLM_MODEL override file values; a .env file in
// the working directory is loaded first.
func Load(path string) (*Config, error) {
	loadEnvFile(".env")

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("voiceform")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	slog.Debug("Loaded config", "file", v.ConfigFileUsed(), "llm_model", cfg.LLM.Model, "stt_backend", cfg.STT.Backend, "store", cfg.Store.Backend)
	return &cfg, nil
}

func loadEnvFile(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		slog.Warn("Failed to load env file", "path", path, "error", err)
	}
}
