// Package romanize converts Thai personal names to an English spelling.
package romanize

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/voiceform/structured"
	"github.com/tbxark/voiceform/types"
)

// Romanizer never fails: when conversion is not possible the input comes back.
type Romanizer interface {
	Romanize(ctx context.Context, name string) string
}

const DefaultSystemPrompt = `You convert Thai personal names to English romanization.
Rules:
- Use common Thai-to-English spelling.
- Return ONLY the romanized name (no explanation).
- If uncertain, return the original Thai name.
- Capitalize the first letter.`

type LLMRomanizer struct {
	ChatModel    model.BaseChatModel
	SystemPrompt string
}

func NewLLMRomanizer(chatModel model.BaseChatModel) *LLMRomanizer {
	return &LLMRomanizer{
		ChatModel:    chatModel,
		SystemPrompt: DefaultSystemPrompt,
	}
}

func (r *LLMRomanizer) Romanize(ctx context.Context, name string) string {
	resp, err := r.ChatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(r.SystemPrompt),
		schema.UserMessage(name),
	})
	if err != nil {
		slog.Warn("Romanization failed, keeping original name", "name", name, "error", err)
		return name
	}
	if resp == nil {
		return name
	}
	out, ok := Clean(resp.Content)
	if !ok {
		slog.Warn("Romanization returned unusable output, keeping original name", "name", name, "output", resp.Content)
		return name
	}
	return out
}

// Clean strips a code fence and all spaces from a model answer. It reports
// false when nothing usable is left or the answer looks structured.
func Clean(output string) (string, bool) {
	out := structured.StripCodeFence(output)
	out = strings.ReplaceAll(out, " ", "")
	if out == "" || strings.ContainsAny(out, "{}[]:") {
		return "", false
	}
	return out, true
}

// Record romanizes first_name and last_name when present and returns a copy.
func Record(ctx context.Context, r Romanizer, rec types.Record) types.Record {
	out := rec.Clone()
	for _, f := range []types.Field{types.FieldFirstName, types.FieldLastName} {
		v := out.Get(f)
		if v == nil || *v == "" {
			continue
		}
		out.Set(f, types.String(r.Romanize(ctx, *v)))
	}
	return out
}

// Identity keeps names unchanged.
type Identity struct{}

func (Identity) Romanize(_ context.Context, name string) string { return name }

var (
	_ Romanizer = (*LLMRomanizer)(nil)
	_ Romanizer = Identity{}
)
