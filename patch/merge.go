package patch

import (
	"log/slog"

	"github.com/tbxark/voiceform/types"
)

// Operations returns the operations that copy every non-absent value of
// partial into old, limited to fields. Fields outside the list are never
// touched, whatever partial holds for them.
func Operations(old, partial types.Record, fields []types.Field) []Operation {
	seen := make(map[types.Field]bool, len(fields))
	ops := make([]Operation, 0, len(fields))
	for _, f := range fields {
		if !f.Valid() || seen[f] {
			continue
		}
		seen[f] = true
		value := partial.Get(f)
		if value == nil {
			continue
		}
		op := OperationReplace
		if old.Get(f) == nil {
			op = OperationAdd
		}
		ops = append(ops, Operation{Op: op, Path: f.JSONPointer(), Value: *value})
	}
	return ops
}

// Merge combines old with partial, updating only the requested fields. It
// always returns a record.
func Merge(old, partial types.Record, fields []types.Field) types.Record {
	ops := Operations(old, partial, fields)
	if len(ops) == 0 {
		return old.Clone()
	}
	if err := ValidatePatchOperations(ops, AllowedPaths(fields)); err != nil {
		slog.Error("Rejected merge operations", "error", err, "ops", ops)
		return old.Clone()
	}
	slog.Debug("Applying merge patch", "ops", ops)
	merged, err := ApplyRFC6902(old, ops)
	if err != nil {
		slog.Warn("Patch apply failed, copying values directly", "error", err)
		return applyDirect(old, ops)
	}
	return merged
}
