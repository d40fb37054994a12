package form

import (
	"fmt"
	"regexp"
	"strings"
)

// PlateFormat names one accepted license plate shape.
type PlateFormat string

const (
	// PlateLatin is 1-3 Latin letters followed by 1-4 digits, e.g. AB1234.
	PlateLatin PlateFormat = "latin"
	// PlateThai is 1-3 Thai letters followed by 1-4 digits, e.g. กข1234.
	PlateThai PlateFormat = "thai"
)

var plateExpressions = map[PlateFormat]*regexp.Regexp{
	PlateLatin: regexp.MustCompile(`^[A-Za-z]{1,3}[0-9]{1,4}$`),
	PlateThai:  regexp.MustCompile(`^[ก-๙]{1,3}[0-9]{1,4}$`),
}

var phoneExpression = regexp.MustCompile(`^0[0-9]{9}$`)

// Rules selects the validator variants.
type Rules struct {
	// NameDenylist holds substrings that mark a name as a transcription echo
	// of a field label.
	NameDenylist []string `json:"name_denylist" mapstructure:"name_denylist"`
	// Genders is the accepted set, compared after trimming and lower-casing.
	Genders []string `json:"genders" mapstructure:"genders"`
	// PlateFormats lists the accepted plate shapes; any match is valid.
	PlateFormats []PlateFormat `json:"plate_formats" mapstructure:"plate_formats"`
}

func DefaultRules() Rules {
	return Rules{
		NameDenylist: []string{"นับสกุน", "นามสกุล", "ชื่อ"},
		Genders:      []string{"male", "female"},
		PlateFormats: []PlateFormat{PlateLatin, PlateThai},
	}
}

// Check rejects rules that would make a field impossible to fill.
func (r Rules) Check() error {
	if len(r.Genders) == 0 {
		return fmt.Errorf("rules: at least one gender must be accepted")
	}
	if len(r.PlateFormats) == 0 {
		return fmt.Errorf("rules: at least one plate format must be accepted")
	}
	for _, f := range r.PlateFormats {
		if _, ok := plateExpressions[f]; !ok {
			return fmt.Errorf("rules: unknown plate format %q", f)
		}
	}
	for _, g := range r.Genders {
		if strings.TrimSpace(g) == "" {
			return fmt.Errorf("rules: empty gender value")
		}
	}
	return nil
}
