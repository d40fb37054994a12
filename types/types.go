package types

type Phase string

const (
	PhaseAwaitingFirstInput Phase = "awaiting_first_input"
	PhaseIncomplete         Phase = "incomplete"
	PhaseComplete           Phase = "complete"
	PhaseAbandoned          Phase = "abandoned"
	PhaseExhausted          Phase = "exhausted"
)

// Terminal reports whether no further turn may run in this phase.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseComplete, PhaseAbandoned, PhaseExhausted:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusComplete   Status = "complete"
	StatusIncomplete Status = "incomplete"
)

// ValidationResult is Complete exactly when InvalidFields is empty.
type ValidationResult struct {
	Status        Status  `json:"status"`
	InvalidFields []Field `json:"invalid_fields"`
}

func (r ValidationResult) Complete() bool {
	return r.Status == StatusComplete
}

type FieldInfo struct {
	Field       Field  `json:"field"`
	JSONPointer string `json:"json_pointer"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

var fieldInfos = map[Field]FieldInfo{
	FieldFirstName: {
		Field:       FieldFirstName,
		JSONPointer: "/first_name",
		DisplayName: "First name",
		Description: "Given name as spoken, in the script it was spoken in",
	},
	FieldLastName: {
		Field:       FieldLastName,
		JSONPointer: "/last_name",
		DisplayName: "Last name",
		Description: "Family name as spoken, in the script it was spoken in",
	},
	FieldGender: {
		Field:       FieldGender,
		JSONPointer: "/gender",
		DisplayName: "Gender",
		Description: "male (ชาย, ผู้ชาย, man) or female (หญิง, ผู้หญิง, woman)",
	},
	FieldPhone: {
		Field:       FieldPhone,
		JSONPointer: "/phone",
		DisplayName: "Phone",
		Description: "Digits only, no spaces or hyphens; spoken digits in Thai or English must be converted",
	},
	FieldLicensePlate: {
		Field:       FieldLicensePlate,
		JSONPointer: "/license_plate",
		DisplayName: "License plate",
		Description: "Compact string without spaces; spelled Thai letters become Thai characters (กอไก่ ขอไข่ 1 2 3 4 -> กข1234)",
	},
}

// Describe returns the prompt metadata of a known field.
func Describe(f Field) (FieldInfo, bool) {
	info, ok := fieldInfos[f]
	return info, ok
}
