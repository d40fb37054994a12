package agent

import "github.com/tbxark/voiceform/types"

// FormSpec decides which fields of a record still need another turn.
// *form.Validator is the production implementation.
type FormSpec interface {
	Validate(record types.Record) types.ValidationResult
}
