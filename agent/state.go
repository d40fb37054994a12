package agent

import (
	"slices"

	"github.com/tbxark/voiceform/types"
)

// State is everything a conversation carries between turns.
type State struct {
	Phase       types.Phase   `json:"phase"`
	Record      types.Record  `json:"record"`
	Outstanding []types.Field `json:"outstanding"`
	Turns       int           `json:"turns"`
	Transcripts []string      `json:"transcripts"`
	Message     string        `json:"message,omitempty"`
}

func NewState() *State {
	return &State{Phase: types.PhaseAwaitingFirstInput}
}

func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	return &State{
		Phase:       s.Phase,
		Record:      s.Record.Clone(),
		Outstanding: slices.Clone(s.Outstanding),
		Turns:       s.Turns,
		Transcripts: slices.Clone(s.Transcripts),
		Message:     s.Message,
	}
}

// restriction returns what the next extraction may fill in.
func (s *State) restriction() types.Restriction {
	if s.Phase == types.PhaseAwaitingFirstInput {
		return types.Unrestricted{}
	}
	return types.OnlyFields(slices.Clone(s.Outstanding))
}

func (s *State) lastTranscript() string {
	if len(s.Transcripts) == 0 {
		return ""
	}
	return s.Transcripts[len(s.Transcripts)-1]
}

func (s *State) response() *Response {
	status := types.StatusIncomplete
	if s.Phase == types.PhaseComplete {
		status = types.StatusComplete
	}
	return &Response{
		Status:        status,
		Phase:         s.Phase,
		Record:        s.Record.Clone(),
		MissingFields: slices.Clone(s.Outstanding),
		Message:       s.Message,
		Transcript:    s.lastTranscript(),
		Turn:          s.Turns,
	}
}
