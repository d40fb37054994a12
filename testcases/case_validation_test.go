package testcases

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/tbxark/voiceform/extract"
	"github.com/tbxark/voiceform/stt"
	"github.com/tbxark/voiceform/types"
)

func TestInvalidValuesAreAskedAgainUntilExhausted(t *testing.T) {
	t.Parallel()
	cm := &ScriptedChatModel{
		Extractions: []string{
			`{"first_name":"ชื่อ","last_name":"ใจดี","gender":"ชาย","phone":"812345678","license_plate":"1234กข"}`,
			`{"first_name":"สมชาย","last_name":null,"gender":"male","phone":"0812345678","license_plate":null}`,
		},
	}
	resp, err := NewTestFlow(t, cm).RunBatch(context.Background(), []stt.Audio{
		Utterance("turn one"),
		Utterance("turn two"),
	})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if resp.Phase != types.PhaseExhausted {
		t.Fatalf("expected exhausted, got %+v", resp)
	}
	if !slices.Equal(resp.MissingFields, []types.Field{types.FieldLicensePlate}) {
		t.Errorf("missing = %v", resp.MissingFields)
	}
	if types.Value(resp.Record.Phone) != "0812345678" || types.Value(resp.Record.FirstName) != "สมชาย" {
		t.Errorf("record = %+v", resp.Record)
	}
	if resp.Message != "ขอรบกวนยืนยันทะเบียนรถอีกครั้ง เนื่องจากระบบอาจได้ยินไม่ชัด" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestMalformedExtractionFailsTheTurn(t *testing.T) {
	t.Parallel()
	cm := &ScriptedChatModel{Extractions: []string{`{"first_name":"สมชาย"}`}}
	_, err := NewTestFlow(t, cm).RunBatch(context.Background(), []stt.Audio{Utterance("x")})
	if !errors.Is(err, extract.ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
}
