package agent

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/tbxark/voiceform/stt"
	"github.com/tbxark/voiceform/types"
)

type extractCall struct {
	transcript  string
	restriction types.Restriction
}

// scriptedExtractor returns one record per call, in order.
type scriptedExtractor struct {
	records []types.Record
	err     error
	calls   []extractCall
}

func (e *scriptedExtractor) Extract(ctx context.Context, req *types.ExtractionRequest) (types.Record, error) {
	e.calls = append(e.calls, extractCall{transcript: req.Transcript, restriction: req.Restriction})
	if e.err != nil {
		return types.Record{}, e.err
	}
	if len(e.records) == 0 {
		return types.Record{}, nil
	}
	r := e.records[0]
	e.records = e.records[1:]
	return r, nil
}

type upperRomanizer struct {
	calls []string
}

func (r *upperRomanizer) Romanize(ctx context.Context, name string) string {
	r.calls = append(r.calls, name)
	return "EN:" + name
}

func echoTranscriber() stt.Transcriber {
	return stt.Func(func(ctx context.Context, audio stt.Audio) (string, error) {
		return "  " + string(audio.Data) + "  ", nil
	})
}

func audio(text string) stt.Audio {
	return stt.Audio{Name: "turn.wav", Data: []byte(text)}
}

func fullRecord() types.Record {
	return types.Record{
		FirstName:    types.String("สมชาย"),
		LastName:     types.String("ใจดี"),
		Gender:       types.String("male"),
		Phone:        types.String("0812345678"),
		LicensePlate: types.String("กข 1234"),
	}
}

func TestTurnCompleteOnFirstTurn(t *testing.T) {
	t.Parallel()
	ex := &scriptedExtractor{records: []types.Record{fullRecord()}}
	ro := &upperRomanizer{}
	flow := NewFlow(echoTranscriber(), ex, ro)

	state := NewState()
	resp, err := flow.Turn(context.Background(), state, audio("ผมชื่อสมชาย   ใจดี"))
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if !resp.Complete() || resp.Phase != types.PhaseComplete {
		t.Fatalf("expected complete, got %+v", resp)
	}
	if _, ok := ex.calls[0].restriction.(types.Unrestricted); !ok {
		t.Errorf("first turn must be unrestricted, got %T", ex.calls[0].restriction)
	}
	if ex.calls[0].transcript != "ผมชื่อสมชาย ใจดี" {
		t.Errorf("transcript not normalized: %q", ex.calls[0].transcript)
	}
	if got := types.Value(resp.Record.LicensePlate); got != "กข1234" {
		t.Errorf("license_plate = %q, want กข1234", got)
	}
	if types.Value(resp.Record.FirstName) != "EN:สมชาย" || types.Value(resp.Record.LastName) != "EN:ใจดี" {
		t.Errorf("names not romanized: %+v", resp.Record)
	}
	if len(resp.MissingFields) != 0 || resp.Message != "" {
		t.Errorf("complete response should carry no prompt: %+v", resp)
	}
	if resp.Transcript != "ผมชื่อสมชาย ใจดี" || resp.Turn != 1 {
		t.Errorf("unexpected transcript or turn: %+v", resp)
	}
}

func TestTurnFirstTurnTakesExtractionWholesale(t *testing.T) {
	t.Parallel()
	first := types.Record{
		LastName: types.String("ใจดี"),
		Gender:   types.String("male"),
		Phone:    types.String("0812345678"),
	}
	flow := NewFlow(echoTranscriber(), &scriptedExtractor{records: []types.Record{first}}, nil)

	state := NewState()
	resp, err := flow.Turn(context.Background(), state, audio("x"))
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if resp.Complete() {
		t.Fatal("expected incomplete")
	}
	want := []types.Field{types.FieldFirstName, types.FieldLicensePlate}
	if !slices.Equal(resp.MissingFields, want) || !slices.Equal(state.Outstanding, want) {
		t.Errorf("missing = %v, outstanding = %v, want %v", resp.MissingFields, state.Outstanding, want)
	}
	if resp.Message != "ขอรบกวนยืนยันชื่อและทะเบียนรถอีกครั้ง เนื่องจากระบบอาจได้ยินไม่ชัด" {
		t.Errorf("message = %q", resp.Message)
	}
	if !reflect.DeepEqual(state.Record, first) {
		t.Errorf("record = %+v, want %+v", state.Record, first)
	}
}

func TestTurnRestrictsAndMergesLaterTurns(t *testing.T) {
	t.Parallel()
	ex := &scriptedExtractor{records: []types.Record{
		{
			LastName: types.String("ใจดี"),
			Gender:   types.String("male"),
			Phone:    types.String("0812345678"),
		},
		{
			FirstName:    types.String("สมชาย"),
			Phone:        types.String("0999999999"),
			LicensePlate: types.String("ab-1234"),
		},
	}}
	flow := NewFlow(echoTranscriber(), ex, nil)
	state := NewState()
	if _, err := flow.Turn(context.Background(), state, audio("one")); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	resp, err := flow.Turn(context.Background(), state, audio("two"))
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}

	only, ok := ex.calls[1].restriction.(types.OnlyFields)
	if !ok || !slices.Equal([]types.Field(only), []types.Field{types.FieldFirstName, types.FieldLicensePlate}) {
		t.Errorf("turn 2 restriction = %#v", ex.calls[1].restriction)
	}
	if !resp.Complete() {
		t.Fatalf("expected complete, got %+v", resp)
	}
	if got := types.Value(resp.Record.Phone); got != "0812345678" {
		t.Errorf("phone outside the outstanding fields changed to %q", got)
	}
	if got := types.Value(resp.Record.LicensePlate); got != "AB1234" {
		t.Errorf("license_plate = %q, want AB1234", got)
	}
	if resp.Turn != 2 || !slices.Equal(state.Transcripts, []string{"one", "two"}) {
		t.Errorf("turn = %d, transcripts = %v", resp.Turn, state.Transcripts)
	}
}

func TestTurnFailureLeavesStateUnchanged(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection refused")
	ex := &scriptedExtractor{records: []types.Record{{Phone: types.String("0812345678")}}}
	flow := NewFlow(echoTranscriber(), ex, nil)
	state := NewState()
	if _, err := flow.Turn(context.Background(), state, audio("one")); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	before := state.Clone()

	ex.err = boom
	_, err := flow.Turn(context.Background(), state, audio("two"))
	if !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "extract: ") {
		t.Fatalf("expected wrapped extract error, got %v", err)
	}
	if !reflect.DeepEqual(state, before) {
		t.Errorf("state changed by failed turn:\n got %+v\nwant %+v", state, before)
	}

	failing := NewFlow(stt.Func(func(ctx context.Context, audio stt.Audio) (string, error) {
		return "", boom
	}), ex, nil)
	_, err = failing.Turn(context.Background(), state, audio("three"))
	if !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "transcribe: ") {
		t.Fatalf("expected wrapped transcribe error, got %v", err)
	}
	if !reflect.DeepEqual(state, before) {
		t.Error("state changed by failed transcription")
	}
}

func TestTurnRejectsTerminalState(t *testing.T) {
	t.Parallel()
	flow := NewFlow(echoTranscriber(), &scriptedExtractor{}, nil)
	for _, phase := range []types.Phase{types.PhaseComplete, types.PhaseAbandoned, types.PhaseExhausted} {
		_, err := flow.Turn(context.Background(), &State{Phase: phase}, audio("x"))
		if !errors.Is(err, ErrTerminal) {
			t.Errorf("phase %s: expected ErrTerminal, got %v", phase, err)
		}
	}
}

func TestRunBatch(t *testing.T) {
	t.Parallel()
	ex := &scriptedExtractor{records: []types.Record{
		{LastName: types.String("ใจดี"), Gender: types.String("male"), Phone: types.String("0812345678")},
		{FirstName: types.String("สมชาย"), LicensePlate: types.String("กข1234")},
	}}
	resp, err := NewFlow(echoTranscriber(), ex, nil).RunBatch(context.Background(), []stt.Audio{audio("1"), audio("2"), audio("3")})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if !resp.Complete() || resp.Turn != 2 {
		t.Fatalf("expected completion on turn 2, got %+v", resp)
	}
	if len(ex.calls) != 2 {
		t.Errorf("extra audio should not be consumed, calls = %d", len(ex.calls))
	}
}

func TestRunBatchExhausted(t *testing.T) {
	t.Parallel()
	ex := &scriptedExtractor{records: []types.Record{
		{LastName: types.String("ใจดี"), Gender: types.String("male"), Phone: types.String("0812345678")},
		{FirstName: types.String("สมชาย")},
	}}
	resp, err := NewFlow(echoTranscriber(), ex, nil).RunBatch(context.Background(), []stt.Audio{audio("1"), audio("2")})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if resp.Phase != types.PhaseExhausted || resp.Status != types.StatusIncomplete {
		t.Fatalf("expected exhausted, got %+v", resp)
	}
	if !slices.Equal(resp.MissingFields, []types.Field{types.FieldLicensePlate}) {
		t.Errorf("missing = %v", resp.MissingFields)
	}
	if resp.Message != "ขอรบกวนยืนยันทะเบียนรถอีกครั้ง เนื่องจากระบบอาจได้ยินไม่ชัด" {
		t.Errorf("message = %q", resp.Message)
	}
	if types.Value(resp.Record.FirstName) != "สมชาย" || types.Value(resp.Record.Phone) != "0812345678" {
		t.Errorf("partial record lost: %+v", resp.Record)
	}
}

func TestRunBatchNoAudio(t *testing.T) {
	t.Parallel()
	_, err := NewFlow(echoTranscriber(), &scriptedExtractor{}, nil).RunBatch(context.Background(), nil)
	if !errors.Is(err, ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
}

type scriptedSource struct {
	audios  []stt.Audio
	prompts []*Response
}

func (s *scriptedSource) NextAudio(ctx context.Context, prompt *Response) (stt.Audio, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.audios) == 0 {
		return stt.Audio{}, ErrAbandoned
	}
	a := s.audios[0]
	s.audios = s.audios[1:]
	return a, nil
}

func TestRunInteractiveAbandoned(t *testing.T) {
	t.Parallel()
	ex := &scriptedExtractor{records: []types.Record{
		{LastName: types.String("ใจดี"), Gender: types.String("male"), Phone: types.String("0812345678")},
	}}
	src := &scriptedSource{audios: []stt.Audio{audio("1")}}
	resp, err := NewFlow(echoTranscriber(), ex, nil).RunInteractive(context.Background(), src)
	if err != nil {
		t.Fatalf("RunInteractive: %v", err)
	}
	if resp.Phase != types.PhaseAbandoned || resp.Status != types.StatusIncomplete {
		t.Fatalf("expected abandoned, got %+v", resp)
	}
	if !slices.Equal(resp.MissingFields, []types.Field{types.FieldFirstName, types.FieldLicensePlate}) {
		t.Errorf("missing = %v", resp.MissingFields)
	}
	if types.Value(resp.Record.LastName) != "ใจดี" {
		t.Error("partial record lost on abandonment")
	}
	if len(src.prompts) != 2 || src.prompts[0] != nil || src.prompts[1] == nil || src.prompts[1].Message == "" {
		t.Errorf("source should see nil then the follow-up prompt, got %v", src.prompts)
	}
}

func TestRunInteractiveAbandonedBeforeFirstTurn(t *testing.T) {
	t.Parallel()
	resp, err := NewFlow(echoTranscriber(), &scriptedExtractor{}, nil).RunInteractive(context.Background(), &scriptedSource{})
	if err != nil {
		t.Fatalf("RunInteractive: %v", err)
	}
	if resp.Phase != types.PhaseAbandoned || len(resp.MissingFields) != 5 || resp.Turn != 0 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRunInteractiveComplete(t *testing.T) {
	t.Parallel()
	ex := &scriptedExtractor{records: []types.Record{
		{LastName: types.String("ใจดี"), Gender: types.String("male"), Phone: types.String("0812345678")},
		{FirstName: types.String("สมชาย"), LicensePlate: types.String("กข 1234")},
	}}
	src := &scriptedSource{audios: []stt.Audio{audio("1"), audio("2")}}
	resp, err := NewFlow(echoTranscriber(), ex, nil).RunInteractive(context.Background(), src)
	if err != nil {
		t.Fatalf("RunInteractive: %v", err)
	}
	if !resp.Complete() || types.Value(resp.Record.LicensePlate) != "กข1234" {
		t.Fatalf("unexpected response %+v", resp)
	}
}
