package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"
	"github.com/tbxark/voiceform/agent"
	"github.com/tbxark/voiceform/config"
	"github.com/tbxark/voiceform/dialogue"
	"github.com/tbxark/voiceform/extract"
	"github.com/tbxark/voiceform/form"
	"github.com/tbxark/voiceform/romanize"
	"github.com/tbxark/voiceform/stt"
	"github.com/tbxark/voiceform/stt/openaistt"
	"github.com/tbxark/voiceform/stt/whispercpp"
)

// app holds the collaborators built from configuration.
type app struct {
	config *config.Config
	flow   *agent.Flow
	memory *agent.MemoryCache[*agent.State]
	redis  *redis.Client
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	temperature := cfg.LLM.Temperature
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: &temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	extractor, err := extract.NewToolBasedExtractor(cm)
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}
	var romanizer romanize.Romanizer = romanize.Identity{}
	if cfg.LLM.Romanize {
		romanizer = romanize.NewLLMRomanizer(cm)
	}
	locale, err := dialogue.LocaleByName(cfg.Locale)
	if err != nil {
		return nil, err
	}
	transcriber, err := newTranscriber(cfg.STT)
	if err != nil {
		return nil, err
	}
	flow := agent.NewFlow(transcriber, extractor, romanizer,
		agent.WithFormSpec(form.NewValidator(cfg.Validation)),
		agent.WithDialogueGenerator(dialogue.NewLocalDialogueGenerator(locale)),
	)
	return &app{config: cfg, flow: flow}, nil
}

func newTranscriber(cfg config.STTConfig) (stt.Transcriber, error) {
	switch cfg.Backend {
	case config.STTWhisperCpp:
		return whispercpp.New(cfg.URL,
			whispercpp.WithLanguage(cfg.Language),
			whispercpp.WithModel(cfg.Model),
			whispercpp.WithBeamSize(cfg.BeamSize),
			whispercpp.WithVAD(cfg.VAD),
			whispercpp.WithTimeout(cfg.Timeout),
		), nil
	case config.STTOpenAI:
		return openaistt.New(cfg.APIKey, cfg.Model,
			openaistt.WithBaseURL(cfg.URL),
			openaistt.WithLanguage(cfg.Language),
			openaistt.WithTimeout(cfg.Timeout),
		), nil
	default:
		return nil, fmt.Errorf("unknown stt backend %q", cfg.Backend)
	}
}

// sessionStore opens the configured session backend.
func (a *app) sessionStore(ctx context.Context) (*agent.Store, error) {
	sc := a.config.Store
	switch sc.Backend {
	case config.StoreRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", sc.Redis.Addr, err)
		}
		slog.Info("Using redis session store", "addr", sc.Redis.Addr, "ttl", sc.TTL)
		return agent.NewStore(agent.NewRedisCache[*agent.State](a.redis, sc.TTL), sc.Namespace), nil
	default:
		a.memory = agent.NewMemoryCache[*agent.State](sc.TTL)
		slog.Info("Using in-memory session store", "ttl", sc.TTL)
		return agent.NewStore(a.memory, sc.Namespace), nil
	}
}

// sweepExpired drops expired in-memory sessions until ctx is done.
func (a *app) sweepExpired(ctx context.Context) error {
	if a.memory == nil || a.config.Store.TTL <= 0 {
		return nil
	}
	ticker := time.NewTicker(a.config.Store.TTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := a.memory.Sweep(); n > 0 {
				slog.Info("Expired sessions removed", "count", n)
			}
		}
	}
}

func (a *app) Close() error {
	var result *multierror.Error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close redis: %w", err))
		}
	}
	return result.ErrorOrNil()
}
