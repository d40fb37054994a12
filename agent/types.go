package agent

import (
	"errors"

	"github.com/tbxark/voiceform/types"
)

var (
	ErrNoAudio         = errors.New("no audio supplied")
	ErrAbandoned       = errors.New("conversation abandoned")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrTerminal        = errors.New("conversation already finished")
)

// Response is what a caller sees after a turn or when a conversation ends.
// Record is the finished record when Status is complete and the partial
// record otherwise.
type Response struct {
	Status        types.Status  `json:"status"`
	Phase         types.Phase   `json:"phase"`
	Record        types.Record  `json:"data"`
	MissingFields []types.Field `json:"missing_fields,omitempty"`
	Message       string        `json:"message,omitempty"`
	Transcript    string        `json:"transcript,omitempty"`
	SessionID     string        `json:"session_id,omitempty"`
	Turn          int           `json:"turn"`
}

func (r *Response) Complete() bool {
	return r != nil && r.Status == types.StatusComplete
}
