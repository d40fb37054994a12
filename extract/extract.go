// Package extract turns a transcript into a partial record through a
// language model.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tbxark/voiceform/types"
)

var ErrMalformedOutput = errors.New("malformed extraction output")

// Extractor returns a best-effort guess per field. When the restriction is
// OnlyFields, every other field of the result is absent.
type Extractor interface {
	Extract(ctx context.Context, req *types.ExtractionRequest) (types.Record, error)
}

// DecodeRecord parses a JSON object that must carry all five keys, each a
// string or null. Blank strings decode as absent.
func DecodeRecord(raw string) (types.Record, error) {
	var obj map[string]any
	if err := sonic.UnmarshalString(raw, &obj); err != nil {
		return types.Record{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if obj == nil {
		return types.Record{}, fmt.Errorf("%w: not a JSON object", ErrMalformedOutput)
	}
	var record types.Record
	for _, f := range types.AllFields() {
		v, ok := obj[string(f)]
		if !ok {
			return types.Record{}, fmt.Errorf("%w: missing key %q", ErrMalformedOutput, f)
		}
		switch val := v.(type) {
		case nil:
		case string:
			if s := strings.TrimSpace(val); s != "" {
				record.Set(f, &s)
			}
		default:
			return types.Record{}, fmt.Errorf("%w: key %q holds %T, want string or null", ErrMalformedOutput, f, v)
		}
	}
	return record, nil
}

// Restrict clears every field r does not allow.
func Restrict(record types.Record, r types.Restriction) types.Record {
	out := record.Clone()
	for _, f := range types.AllFields() {
		if !r.Allows(f) {
			out.Set(f, nil)
		}
	}
	return out
}
