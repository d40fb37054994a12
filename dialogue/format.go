package dialogue

import (
	"fmt"
	"strings"

	"github.com/tbxark/voiceform/types"
)

// Locale is the closed label table and join rules of one language.
type Locale struct {
	Name   string
	Labels map[types.Field]string
	// Pair joins exactly two labels.
	Pair string
	// Separator joins all but the last label of three or more.
	Separator string
	// Last precedes the final label of three or more.
	Last string
	// Template receives the joined labels through a single %s.
	Template string
}

var Thai = Locale{
	Name: "th",
	Labels: map[types.Field]string{
		types.FieldFirstName:    "ชื่อ",
		types.FieldLastName:     "นามสกุล",
		types.FieldPhone:        "เบอร์โทรศัพท์",
		types.FieldGender:       "เพศ",
		types.FieldLicensePlate: "ทะเบียนรถ",
	},
	Pair:      "และ",
	Separator: "、",
	Last:      " และ",
	Template:  "ขอรบกวนยืนยัน%sอีกครั้ง เนื่องจากระบบอาจได้ยินไม่ชัด",
}

var English = Locale{
	Name: "en",
	Labels: map[types.Field]string{
		types.FieldFirstName:    "first name",
		types.FieldLastName:     "last name",
		types.FieldPhone:        "phone number",
		types.FieldGender:       "gender",
		types.FieldLicensePlate: "license plate",
	},
	Pair:      " and ",
	Separator: ", ",
	Last:      ", and ",
	Template:  "Could you please confirm your %s again? The system may not have heard you clearly.",
}

func LocaleByName(name string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "th", "thai":
		return Thai, nil
	case "en", "english":
		return English, nil
	default:
		return Locale{}, fmt.Errorf("unknown locale %q", name)
	}
}

func (l Locale) join(labels []string) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	case 2:
		return labels[0] + l.Pair + labels[1]
	default:
		return strings.Join(labels[:len(labels)-1], l.Separator) + l.Last + labels[len(labels)-1]
	}
}

// Build renders the request to reconfirm fields. Unknown fields and an empty
// list are contract violations.
func (l Locale) Build(fields []types.Field) (string, error) {
	if len(fields) == 0 {
		return "", ErrNoFields
	}
	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		label, ok := l.Labels[f]
		if !ok {
			return "", fmt.Errorf("%w: %q in locale %s", ErrUnknownField, f, l.Name)
		}
		labels = append(labels, label)
	}
	return fmt.Sprintf(l.Template, l.join(labels)), nil
}
