package form

import (
	"strings"

	"github.com/tbxark/voiceform/types"
)

// ValidName is false for an absent name or one containing a denylisted echo.
func ValidName(name *string, denylist []string) bool {
	if name == nil {
		return false
	}
	for _, w := range denylist {
		if w != "" && strings.Contains(*name, w) {
			return false
		}
	}
	return true
}

// ValidPhone accepts exactly a leading zero followed by nine digits.
func ValidPhone(phone *string) bool {
	if phone == nil {
		return false
	}
	return phoneExpression.MatchString(*phone)
}

func ValidGender(gender *string, accepted []string) bool {
	if gender == nil {
		return false
	}
	g := strings.ToLower(strings.TrimSpace(*gender))
	for _, a := range accepted {
		if g == strings.ToLower(strings.TrimSpace(a)) {
			return true
		}
	}
	return false
}

// ValidLicensePlate matches the plate against the accepted formats. It does
// not strip whitespace; that is the normalizer's job.
func ValidLicensePlate(plate *string, formats []PlateFormat) bool {
	if plate == nil {
		return false
	}
	for _, f := range formats {
		re, ok := plateExpressions[f]
		if ok && re.MatchString(*plate) {
			return true
		}
	}
	return false
}

// Validator runs every field validator over a record.
type Validator struct {
	rules Rules
}

func NewValidator(rules Rules) *Validator {
	return &Validator{rules: rules}
}

func (v *Validator) Rules() Rules {
	return v.rules
}

// ValidField reports whether the value of f in record passes its validator.
func (v *Validator) ValidField(record types.Record, f types.Field) bool {
	value := record.Get(f)
	switch f {
	case types.FieldFirstName, types.FieldLastName:
		return ValidName(value, v.rules.NameDenylist)
	case types.FieldPhone:
		return ValidPhone(value)
	case types.FieldGender:
		return ValidGender(value, v.rules.Genders)
	case types.FieldLicensePlate:
		return ValidLicensePlate(value, v.rules.PlateFormats)
	default:
		return false
	}
}

// Validate never fails: absent or malformed values are listed in
// InvalidFields, in validation order.
func (v *Validator) Validate(record types.Record) types.ValidationResult {
	invalid := make([]types.Field, 0, 5)
	for _, f := range types.ValidationOrder() {
		if !v.ValidField(record, f) {
			invalid = append(invalid, f)
		}
	}
	if len(invalid) == 0 {
		return types.ValidationResult{Status: types.StatusComplete, InvalidFields: []types.Field{}}
	}
	return types.ValidationResult{Status: types.StatusIncomplete, InvalidFields: invalid}
}
