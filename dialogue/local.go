package dialogue

import (
	"context"
)

// LocalDialogueGenerator builds the follow-up from the locale table without a
// model call.
type LocalDialogueGenerator struct {
	Locale Locale
}

func NewLocalDialogueGenerator(locale Locale) *LocalDialogueGenerator {
	return &LocalDialogueGenerator{Locale: locale}
}

func (g *LocalDialogueGenerator) GenerateDialogue(ctx context.Context, req *Request) (string, error) {
	if req == nil {
		return "", ErrNoFields
	}
	return g.Locale.Build(req.MissingFields)
}

var _ Generator = (*LocalDialogueGenerator)(nil)
