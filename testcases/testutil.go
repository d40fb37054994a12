// Package testcases runs whole conversations through the real extraction,
// validation, merge and message stack with a scripted chat model.
package testcases

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/voiceform/agent"
	"github.com/tbxark/voiceform/config"
	"github.com/tbxark/voiceform/extract"
	"github.com/tbxark/voiceform/romanize"
	"github.com/tbxark/voiceform/stt"
)

// ScriptedChatModel answers forced tool calls with Extractions in order and
// plain prompts through Names.
type ScriptedChatModel struct {
	mu          sync.Mutex
	Extractions []string
	Names       map[string]string
	Prompts     []string
}

func (m *ScriptedChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	last := input[len(input)-1].Content
	m.Prompts = append(m.Prompts, last)
	if input[0].Content == romanize.DefaultSystemPrompt {
		if name, ok := m.Names[last]; ok {
			return schema.AssistantMessage(name, nil), nil
		}
		return schema.AssistantMessage(last, nil), nil
	}
	if len(m.Extractions) == 0 {
		return nil, errors.New("no scripted extraction left")
	}
	args := m.Extractions[0]
	m.Extractions = m.Extractions[1:]
	return &schema.Message{
		Role:      schema.Assistant,
		ToolCalls: []schema.ToolCall{{Function: schema.FunctionCall{Name: "extract_fields", Arguments: args}}},
	}, nil
}

func (m *ScriptedChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (m *ScriptedChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// TextTranscriber treats the audio bytes as the transcript.
func TextTranscriber() stt.Transcriber {
	return stt.Func(func(ctx context.Context, audio stt.Audio) (string, error) {
		return string(audio.Data), nil
	})
}

func Utterance(text string) stt.Audio {
	return stt.Audio{Name: "utterance.wav", Data: []byte(text)}
}

func NewTestFlow(t *testing.T, chatModel model.ToolCallingChatModel) *agent.Flow {
	t.Helper()
	extractor, err := extract.NewToolBasedExtractor(chatModel)
	if err != nil {
		t.Fatalf("create extractor: %v", err)
	}
	return agent.NewFlow(TextTranscriber(), extractor, romanize.NewLLMRomanizer(chatModel))
}

// InitChatModel connects to the configured LLM for live tests.
func InitChatModel(t *testing.T) *openai.ChatModel {
	if os.Getenv("VOICEFORM_RUN_LIVE_TESTS") != "1" {
		t.Skip("set VOICEFORM_RUN_LIVE_TESTS=1 to run live LLM tests")
		return nil
	}
	ctx := context.Background()
	conf, err := config.Load(os.Getenv("VOICEFORM_CONFIG"))
	if err != nil {
		t.Skipf("failed to load config: %v", err)
		return nil
	}
	temperature := conf.LLM.Temperature
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      conf.LLM.APIKey,
		Model:       conf.LLM.Model,
		BaseURL:     conf.LLM.BaseURL,
		Temperature: &temperature,
		Timeout:     conf.LLM.Timeout,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
		return nil
	}
	return chatModel
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
