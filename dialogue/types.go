package dialogue

import (
	"context"
	"errors"

	"github.com/tbxark/voiceform/types"
)

var (
	ErrNoFields     = errors.New("no fields to ask about")
	ErrUnknownField = errors.New("field has no label")
)

type Request struct {
	Phase         types.Phase
	MissingFields []types.Field
}

// Generator renders the follow-up message for the fields still missing.
type Generator interface {
	GenerateDialogue(ctx context.Context, req *Request) (string, error)
}
