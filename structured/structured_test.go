package structured

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type scriptedModel struct {
	reply *schema.Message
	err   error
	calls int
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.calls++
	return m.reply, m.err
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

type answer struct {
	Value string `json:"value" jsonschema:"description=The answer"`
}

func buildPrompt(ctx context.Context, input string) ([]*schema.Message, error) {
	return []*schema.Message{schema.UserMessage(input)}, nil
}

func newTestChain(t *testing.T, m *scriptedModel) *Chain[string, answer] {
	t.Helper()
	chain, err := NewChain[string, answer](m, buildPrompt, "give_answer", "Return the answer")
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	return chain
}

func TestChainInvokeToolCall(t *testing.T) {
	t.Parallel()
	m := &scriptedModel{reply: &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			Function: schema.FunctionCall{Name: "give_answer", Arguments: `{"value":"42"}`},
		}},
	}}
	got, err := newTestChain(t, m).Invoke(context.Background(), "q")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got.Value != "42" {
		t.Errorf("Value = %q", got.Value)
	}
}

func TestChainInvokeFencedContent(t *testing.T) {
	t.Parallel()
	m := &scriptedModel{reply: schema.AssistantMessage("```json\n{\"value\":\"fenced\"}\n```", nil)}
	got, err := newTestChain(t, m).Invoke(context.Background(), "q")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got.Value != "fenced" {
		t.Errorf("Value = %q", got.Value)
	}
}

func TestChainInvokeNoToolCall(t *testing.T) {
	t.Parallel()
	m := &scriptedModel{reply: schema.AssistantMessage("I cannot help with that", nil)}
	_, err := newTestChain(t, m).Invoke(context.Background(), "q")
	if !errors.Is(err, ErrNoToolCall) {
		t.Fatalf("expected ErrNoToolCall, got %v", err)
	}
}

func TestChainInvokeMalformedArguments(t *testing.T) {
	t.Parallel()
	m := &scriptedModel{reply: &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			Function: schema.FunctionCall{Name: "give_answer", Arguments: `{"value":`},
		}},
	}}
	if _, err := newTestChain(t, m).Invoke(context.Background(), "q"); err == nil {
		t.Fatal("malformed arguments should fail")
	}
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\nSomchai\n```":       "Somchai",
		"  plain  ":               "plain",
		"```{\"a\":1}```":         `{"a":1}`,
	}
	for in, want := range tests {
		if got := StripCodeFence(in); got != want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
