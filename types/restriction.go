package types

import (
	"errors"
	"fmt"
)

var ErrInvalidRestriction = errors.New("invalid extraction restriction")

// Restriction selects which fields an extraction may populate. It is either
// Unrestricted or OnlyFields.
type Restriction interface {
	Allows(f Field) bool
	restriction()
}

// Unrestricted lets the extraction attempt every field.
type Unrestricted struct{}

func (Unrestricted) Allows(f Field) bool { return f.Valid() }
func (Unrestricted) restriction()        {}

// OnlyFields limits the extraction to the listed fields.
type OnlyFields []Field

func (o OnlyFields) Allows(f Field) bool {
	for _, allowed := range o {
		if allowed == f {
			return true
		}
	}
	return false
}

func (OnlyFields) restriction() {}

// CheckRestriction rejects restrictions that cannot come from a well-formed
// conversation: a nil value, an empty field list, or unknown field names.
func CheckRestriction(r Restriction) error {
	switch v := r.(type) {
	case Unrestricted:
		return nil
	case OnlyFields:
		if len(v) == 0 {
			return fmt.Errorf("%w: empty field list", ErrInvalidRestriction)
		}
		for _, f := range v {
			if !f.Valid() {
				return fmt.Errorf("%w: unknown field %q", ErrInvalidRestriction, f)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrInvalidRestriction, r)
	}
}

// AllowedFields returns the fields r allows, in definition order.
func AllowedFields(r Restriction) []Field {
	var out []Field
	for _, f := range definitionOrder {
		if r.Allows(f) {
			out = append(out, f)
		}
	}
	return out
}
