package patch

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tbxark/voiceform/types"
)

// ApplyRFC6902 applies ops to a copy of current.
func ApplyRFC6902(current types.Record, ops []Operation) (types.Record, error) {
	if len(ops) == 0 {
		return current.Clone(), nil
	}

	currentJSON, err := json.Marshal(current)
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to marshal current record: %w", err)
	}

	patchJSON, err := json.Marshal(ops)
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to marshal patch operations: %w", err)
	}

	p, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to decode patch: %w", err)
	}

	modifiedJSON, err := p.Apply(currentJSON)
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to apply patch: %w", err)
	}

	var result types.Record
	if err := json.Unmarshal(modifiedJSON, &result); err != nil {
		return types.Record{}, fmt.Errorf("patch produced an invalid record: %w", err)
	}
	return result, nil
}

// applyDirect writes string values of add/replace ops straight into a copy of
// current, ignoring anything it does not understand.
func applyDirect(current types.Record, ops []Operation) types.Record {
	out := current.Clone()
	for _, op := range ops {
		if op.Op != OperationAdd && op.Op != OperationReplace {
			continue
		}
		f, ok := fieldFromPath(op.Path)
		if !ok {
			continue
		}
		if s, ok := op.Value.(string); ok {
			out.Set(f, &s)
		}
	}
	return out
}

func fieldFromPath(path string) (types.Field, bool) {
	if len(path) < 2 || path[0] != '/' {
		return "", false
	}
	f := types.Field(path[1:])
	return f, f.Valid()
}
