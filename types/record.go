package types

// Field names one of the five values collected by a conversation.
type Field string

const (
	FieldFirstName    Field = "first_name"
	FieldLastName     Field = "last_name"
	FieldGender       Field = "gender"
	FieldPhone        Field = "phone"
	FieldLicensePlate Field = "license_plate"
)

var (
	definitionOrder = []Field{FieldFirstName, FieldLastName, FieldGender, FieldPhone, FieldLicensePlate}
	validationOrder = []Field{FieldFirstName, FieldLastName, FieldPhone, FieldGender, FieldLicensePlate}
)

// AllFields returns the fields in record definition order.
func AllFields() []Field {
	return append([]Field(nil), definitionOrder...)
}

// ValidationOrder returns the order in which validators run and invalid
// fields are reported.
func ValidationOrder() []Field {
	return append([]Field(nil), validationOrder...)
}

func (f Field) Valid() bool {
	switch f {
	case FieldFirstName, FieldLastName, FieldGender, FieldPhone, FieldLicensePlate:
		return true
	default:
		return false
	}
}

func (f Field) String() string {
	return string(f)
}

// JSONPointer is the RFC 6901 pointer of the field inside an encoded Record.
func (f Field) JSONPointer() string {
	return "/" + string(f)
}

// Record holds the five collected values. A nil pointer means the value has
// not been provided, which is distinct from a provided but invalid value.
type Record struct {
	FirstName    *string `json:"first_name" jsonschema:"description=Given name"`
	LastName     *string `json:"last_name" jsonschema:"description=Family name"`
	Gender       *string `json:"gender" jsonschema:"description=male or female"`
	Phone        *string `json:"phone" jsonschema:"description=Phone digits"`
	LicensePlate *string `json:"license_plate" jsonschema:"description=Compact license plate"`
}

func (r *Record) slot(f Field) **string {
	switch f {
	case FieldFirstName:
		return &r.FirstName
	case FieldLastName:
		return &r.LastName
	case FieldGender:
		return &r.Gender
	case FieldPhone:
		return &r.Phone
	case FieldLicensePlate:
		return &r.LicensePlate
	default:
		return nil
	}
}

// Get returns the value of f, or nil when it is absent or f is unknown.
func (r Record) Get(f Field) *string {
	s := r.slot(f)
	if s == nil {
		return nil
	}
	return *s
}

// Set stores a copy of v under f. Unknown fields are ignored.
func (r *Record) Set(f Field, v *string) {
	s := r.slot(f)
	if s == nil {
		return
	}
	*s = clonePtr(v)
}

// Clone returns a deep copy so callers never share value pointers.
func (r Record) Clone() Record {
	return Record{
		FirstName:    clonePtr(r.FirstName),
		LastName:     clonePtr(r.LastName),
		Gender:       clonePtr(r.Gender),
		Phone:        clonePtr(r.Phone),
		LicensePlate: clonePtr(r.LicensePlate),
	}
}

// Present lists the fields holding a value, in definition order.
func (r Record) Present() []Field {
	var out []Field
	for _, f := range definitionOrder {
		if r.Get(f) != nil {
			out = append(out, f)
		}
	}
	return out
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// Value dereferences v, returning "" when it is absent.
func Value(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func clonePtr(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
