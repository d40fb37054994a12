package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/voiceform/structured"
	"github.com/tbxark/voiceform/types"
)

const (
	extractFieldsToolName        = "extract_fields"
	extractFieldsToolDescription = "Return the personal fields found in a speech transcript. Every key must be present; use null for anything missing or unclear."
)

// DefaultExtractionSystemPrompt is the default system prompt of
// ToolBasedExtractor. It may contain a single "%s" placeholder for the tool name.
const DefaultExtractionSystemPrompt = `You extract structured fields from speech transcripts. The transcript may be Thai, English or mixed.

Call the '%s' tool with exactly these keys: first_name, last_name, gender, phone, license_plate.
- Always return all keys.
- Use null if a field is missing or unclear.
- Do NOT hallucinate.

Gender rules:
- male: ชาย, ผู้ชาย, man, male
- female: หญิง, ผู้หญิง, woman, female
- Otherwise: null

Phone rules:
- Digits only (no spaces, no hyphens).
- Spoken digits in Thai or English must be converted (e.g. 'ศูนย์หกหนึ่งแปดห้า หนึ่งศูนย์หกหนึ่งแปด', 'zero six one eight five one zero six one eight').

License plate rules:
- Thai spelled letters must be converted to Thai characters ('กอไก่ ขอไข่ 1 2 3 4' -> 'กข1234').
- English license plates are allowed ('AB 1 2 3 4' -> 'AB1234').
- Keep license_plate as a compact string (no spaces).

No explanation, no markdown.`

type extractionArgs struct {
	FirstName    *string `json:"first_name" jsonschema:"required,description=Given name or null"`
	LastName     *string `json:"last_name" jsonschema:"required,description=Family name or null"`
	Gender       *string `json:"gender" jsonschema:"required,description=male or female or null"`
	Phone        *string `json:"phone" jsonschema:"required,description=Phone digits only or null"`
	LicensePlate *string `json:"license_plate" jsonschema:"required,description=Compact license plate or null"`
}

type extractorOptions struct {
	systemPrompt string
}

type Option func(*extractorOptions)

// WithSystemPrompt overrides DefaultExtractionSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(o *extractorOptions) {
		o.systemPrompt = prompt
	}
}

type ToolBasedExtractor struct {
	chain *structured.Chain[*types.ExtractionRequest, extractionArgs]
}

func NewToolBasedExtractor(chatModel model.ToolCallingChatModel, opts ...Option) (*ToolBasedExtractor, error) {
	options := extractorOptions{systemPrompt: DefaultExtractionSystemPrompt}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	systemPrompt := options.systemPrompt
	chain, err := structured.NewChain[*types.ExtractionRequest, extractionArgs](
		chatModel,
		func(ctx context.Context, req *types.ExtractionRequest) ([]*schema.Message, error) {
			message, err := types.FormatExtractionRequest(req)
			if err != nil {
				return nil, fmt.Errorf("convert to prompt message failed: %w", err)
			}
			return []*schema.Message{
				schema.SystemMessage(fmt.Sprintf(systemPrompt, extractFieldsToolName)),
				schema.UserMessage(message),
			}, nil
		},
		extractFieldsToolName,
		extractFieldsToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedExtractor{chain: chain}, nil
}

func (e *ToolBasedExtractor) Extract(ctx context.Context, req *types.ExtractionRequest) (types.Record, error) {
	if req == nil {
		return types.Record{}, fmt.Errorf("%w: nil request", types.ErrInvalidRestriction)
	}
	if err := types.CheckRestriction(req.Restriction); err != nil {
		return types.Record{}, err
	}
	raw, err := e.chain.InvokeRaw(ctx, req)
	if err != nil {
		return types.Record{}, fmt.Errorf("LLM call failed: %w", err)
	}
	record, err := DecodeRecord(raw)
	if err != nil {
		return types.Record{}, err
	}
	restricted := Restrict(record, req.Restriction)
	slog.Debug("Extracted fields", "present", restricted.Present(), "allowed", types.AllowedFields(req.Restriction))
	return restricted, nil
}

var _ Extractor = (*ToolBasedExtractor)(nil)
