package structured

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

var ErrNoToolCall = errors.New("no tool call in model response")

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

// Chain forces the model to answer through a single tool whose arguments
// decode into TOutput.
type Chain[TInput, TOutput any] struct {
	PromptBuilder PromptBuilder[TInput]
	ChatModel     model.ToolCallingChatModel
	ToolInfo      *schema.ToolInfo
}

func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
) (*Chain[TInput, TOutput], error) {
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &Chain[TInput, TOutput]{
		PromptBuilder: promptBuilder,
		ChatModel:     chatModel,
		ToolInfo:      toolInfo,
	}, nil
}

// InvokeRaw returns the raw JSON arguments of the forced tool call. Models
// served without tool support sometimes answer in plain content; a JSON
// object there, fenced or not, is accepted in place of the call.
func (s *Chain[TInput, TOutput]) InvokeRaw(ctx context.Context, input TInput) (string, error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return "", fmt.Errorf("build prompt failed: %w", err)
	}

	response, err := s.ChatModel.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{s.ToolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, s.ToolInfo.Name),
	)
	if err != nil {
		return "", fmt.Errorf("call model failed: %w", err)
	}
	if response == nil {
		return "", fmt.Errorf("%w: empty response", ErrNoToolCall)
	}
	for _, call := range response.ToolCalls {
		if call.Function.Name == "" || call.Function.Name == s.ToolInfo.Name {
			return call.Function.Arguments, nil
		}
	}
	content := StripCodeFence(response.Content)
	if strings.HasPrefix(content, "{") {
		return content, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoToolCall, response.Content)
}

func (s *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	raw, err := s.InvokeRaw(ctx, input)
	if err != nil {
		return nil, err
	}
	var result TOutput
	if err := sonic.UnmarshalString(raw, &result); err != nil {
		return nil, fmt.Errorf("parse ToolCall arguments failed: %w", err)
	}
	return &result, nil
}

func (s *Chain[TInput, TOutput]) GetToolInfo() *schema.ToolInfo {
	return s.ToolInfo
}

// StripCodeFence removes a surrounding markdown code fence and trims the rest.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
