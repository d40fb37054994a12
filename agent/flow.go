package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tbxark/voiceform/dialogue"
	"github.com/tbxark/voiceform/extract"
	"github.com/tbxark/voiceform/form"
	"github.com/tbxark/voiceform/metrics"
	"github.com/tbxark/voiceform/patch"
	"github.com/tbxark/voiceform/plate"
	"github.com/tbxark/voiceform/romanize"
	"github.com/tbxark/voiceform/stt"
	"github.com/tbxark/voiceform/types"
)

// Flow runs the turns of one conversation. It holds no per-conversation
// state and may be shared.
type Flow struct {
	transcriber       stt.Transcriber
	extractor         extract.Extractor
	romanizer         romanize.Romanizer
	spec              FormSpec
	plates            plate.Normalizer
	dialogueGenerator dialogue.Generator
}

type FlowOption func(*Flow)

func WithFormSpec(spec FormSpec) FlowOption {
	return func(f *Flow) {
		f.spec = spec
	}
}

func WithPlateNormalizer(n plate.Normalizer) FlowOption {
	return func(f *Flow) {
		f.plates = n
	}
}

func WithDialogueGenerator(g dialogue.Generator) FlowOption {
	return func(f *Flow) {
		f.dialogueGenerator = g
	}
}

func NewFlow(
	transcriber stt.Transcriber,
	extractor extract.Extractor,
	romanizer romanize.Romanizer,
	opts ...FlowOption,
) *Flow {
	f := &Flow{
		transcriber:       transcriber,
		extractor:         extractor,
		romanizer:         romanizer,
		spec:              form.NewValidator(form.DefaultRules()),
		plates:            plate.Compact{},
		dialogueGenerator: dialogue.NewLocalDialogueGenerator(dialogue.Thai),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.romanizer == nil {
		f.romanizer = romanize.Identity{}
	}
	return f
}

// Turn consumes one utterance and advances state. On error state is left
// exactly as it was, so the caller may retry with the same audio.
func (f *Flow) Turn(ctx context.Context, state *State, audio stt.Audio) (*Response, error) {
	if state == nil {
		return nil, errors.New("nil state")
	}
	if state.Phase == "" {
		state.Phase = types.PhaseAwaitingFirstInput
	}
	if state.Phase.Terminal() {
		return nil, fmt.Errorf("%w: phase %s", ErrTerminal, state.Phase)
	}
	timer := prometheus.NewTimer(metrics.TurnDuration.WithLabelValues(string(state.Phase)))
	defer timer.ObserveDuration()

	next, err := f.runInternal(ctx, state, audio)
	if err != nil {
		metrics.TurnsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}
	*state = *next
	if state.Phase == types.PhaseComplete {
		metrics.TurnsTotal.WithLabelValues(metrics.OutcomeComplete).Inc()
	} else {
		metrics.TurnsTotal.WithLabelValues(metrics.OutcomeIncomplete).Inc()
	}
	slog.Info("Turn finished", "turn", state.Turns, "phase", state.Phase, "missing", state.Outstanding)
	return state.response(), nil
}

func (f *Flow) runInternal(ctx context.Context, state *State, audio stt.Audio) (*State, error) {
	slog.Debug("Transcribing audio", "phase", state.Phase, "name", audio.Name)
	transcript, err := f.transcriber.Transcribe(ctx, audio)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues(metrics.StageTranscribe).Inc()
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	transcript = stt.NormalizeTranscript(transcript)
	slog.Debug("Transcribed audio", "transcript", transcript)

	restriction := state.restriction()
	partial, err := f.extractor.Extract(ctx, &types.ExtractionRequest{
		Transcript:  transcript,
		Restriction: restriction,
		Question:    state.Message,
	})
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues(metrics.StageExtract).Inc()
		return nil, fmt.Errorf("extract: %w", err)
	}
	partial = f.normalize(partial)

	next := state.Clone()
	next.Turns++
	next.Transcripts = append(next.Transcripts, transcript)

	switch state.Phase {
	case types.PhaseAwaitingFirstInput:
		// Nothing to protect yet: the first extraction is taken as is.
		next.Record = partial
	case types.PhaseIncomplete:
		slog.Debug("Merging answer", "fields", state.Outstanding, "ops", patch.Operations(state.Record, partial, state.Outstanding))
		next.Record = f.normalize(patch.Merge(state.Record, partial, state.Outstanding))
	default:
		return nil, fmt.Errorf("unexpected phase %q", state.Phase)
	}

	result := f.spec.Validate(next.Record)
	if result.Complete() {
		next.Record = romanize.Record(ctx, f.romanizer, next.Record)
		next.Phase = types.PhaseComplete
		next.Outstanding = nil
		next.Message = ""
		return next, nil
	}

	message, err := f.dialogueGenerator.GenerateDialogue(ctx, &dialogue.Request{
		Phase:         types.PhaseIncomplete,
		MissingFields: result.InvalidFields,
	})
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues(metrics.StageDialogue).Inc()
		return nil, fmt.Errorf("build message: %w", err)
	}
	next.Phase = types.PhaseIncomplete
	next.Outstanding = result.InvalidFields
	next.Message = message
	return next, nil
}

// normalize canonicalizes the license plate, the only field that needs it.
func (f *Flow) normalize(record types.Record) types.Record {
	if record.LicensePlate == nil {
		return record
	}
	out := record.Clone()
	out.LicensePlate = types.String(f.plates.Normalize(*record.LicensePlate))
	return out
}

// RunBatch drives a conversation over pre-recorded answers in order. Running
// out of audio before the record is complete ends in the exhausted phase
// with the partial record, not an error.
func (f *Flow) RunBatch(ctx context.Context, audios []stt.Audio) (*Response, error) {
	if len(audios) == 0 {
		return nil, ErrNoAudio
	}
	state := NewState()
	for i, audio := range audios {
		resp, err := f.Turn(ctx, state, audio)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", i+1, err)
		}
		if resp.Complete() {
			return resp, nil
		}
	}
	state.Phase = types.PhaseExhausted
	slog.Info("Audio exhausted before completion", "turns", state.Turns, "missing", state.Outstanding)
	return state.response(), nil
}

// AudioSource supplies the answer to the previous response. It is called
// with a nil response before the first turn and returns ErrAbandoned when
// the user gives up.
type AudioSource interface {
	NextAudio(ctx context.Context, prompt *Response) (stt.Audio, error)
}

// RunInteractive drives a conversation until it completes or the source
// reports ErrAbandoned.
func (f *Flow) RunInteractive(ctx context.Context, source AudioSource) (*Response, error) {
	state := NewState()
	var prompt *Response
	for {
		audio, err := source.NextAudio(ctx, prompt)
		if errors.Is(err, ErrAbandoned) {
			return f.abandon(ctx, state)
		}
		if err != nil {
			return nil, err
		}
		resp, err := f.Turn(ctx, state, audio)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", state.Turns+1, err)
		}
		if resp.Complete() {
			return resp, nil
		}
		prompt = resp
	}
}

func (f *Flow) abandon(ctx context.Context, state *State) (*Response, error) {
	if state.Phase == types.PhaseAwaitingFirstInput {
		// Abandoned before any answer: every field is still missing.
		result := f.spec.Validate(state.Record)
		message, err := f.dialogueGenerator.GenerateDialogue(ctx, &dialogue.Request{
			Phase:         types.PhaseAbandoned,
			MissingFields: result.InvalidFields,
		})
		if err != nil {
			return nil, fmt.Errorf("build message: %w", err)
		}
		state.Outstanding = result.InvalidFields
		state.Message = message
	}
	state.Phase = types.PhaseAbandoned
	slog.Info("Conversation abandoned", "turns", state.Turns, "missing", state.Outstanding)
	return state.response(), nil
}
