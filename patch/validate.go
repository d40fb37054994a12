package patch

import (
	"fmt"

	"github.com/tbxark/voiceform/types"
)

// AllowedPaths maps the JSON pointers of fields to true.
func AllowedPaths(fields []types.Field) map[string]bool {
	allowed := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Valid() {
			allowed[f.JSONPointer()] = true
		}
	}
	return allowed
}

// ValidatePatchOperations rejects any operation whose path is outside allowed.
// An empty allowed set permits nothing.
func ValidatePatchOperations(ops []Operation, allowed map[string]bool) error {
	for i, op := range ops {
		if !allowed[op.Path] {
			return fmt.Errorf("operation %d: path %q is not in the allowed paths set", i, op.Path)
		}
	}
	return nil
}
