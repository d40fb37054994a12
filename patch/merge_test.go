package patch

import (
	"reflect"
	"testing"

	"github.com/tbxark/voiceform/types"
)

func sampleRecord() types.Record {
	return types.Record{
		LastName: types.String("ใจดี"),
		Gender:   types.String("male"),
		Phone:    types.String("0812345678"),
	}
}

func TestMergeOnlyRequestedFields(t *testing.T) {
	t.Parallel()
	old := sampleRecord()
	partial := types.Record{
		FirstName:    types.String("สมชาย"),
		Phone:        types.String("0899999999"),
		LicensePlate: types.String("กข1234"),
	}
	merged := Merge(old, partial, []types.Field{types.FieldFirstName, types.FieldLicensePlate})

	if types.Value(merged.FirstName) != "สมชาย" {
		t.Errorf("first_name = %q", types.Value(merged.FirstName))
	}
	if types.Value(merged.LicensePlate) != "กข1234" {
		t.Errorf("license_plate = %q", types.Value(merged.LicensePlate))
	}
	if types.Value(merged.Phone) != "0812345678" {
		t.Errorf("unrequested phone was overwritten: %q", types.Value(merged.Phone))
	}
	if types.Value(merged.LastName) != "ใจดี" || types.Value(merged.Gender) != "male" {
		t.Errorf("unrequested fields changed: %+v", merged)
	}
}

func TestMergeKeepsPriorValueWhenPartialAbsent(t *testing.T) {
	t.Parallel()
	old := sampleRecord()
	old.LicensePlate = types.String("AB12")
	merged := Merge(old, types.Record{}, []types.Field{types.FieldLicensePlate, types.FieldPhone})
	if !reflect.DeepEqual(merged, old) {
		t.Errorf("merge with an empty partial changed the record: %+v", merged)
	}
}

func TestMergeEmptyFieldListIsNoop(t *testing.T) {
	t.Parallel()
	old := sampleRecord()
	partial := types.Record{
		FirstName:    types.String("x"),
		LastName:     types.String("y"),
		Gender:       types.String("female"),
		Phone:        types.String("0000000000"),
		LicensePlate: types.String("ZZ9"),
	}
	if merged := Merge(old, partial, nil); !reflect.DeepEqual(merged, old) {
		t.Errorf("merge with no requested fields changed the record: %+v", merged)
	}
}

func TestMergeSafetyForEveryField(t *testing.T) {
	t.Parallel()
	old := types.Record{
		FirstName:    types.String("a"),
		LastName:     types.String("b"),
		Gender:       types.String("male"),
		Phone:        types.String("0812345678"),
		LicensePlate: types.String("กข1"),
	}
	partial := types.Record{
		FirstName:    types.String("A"),
		LastName:     types.String("B"),
		Gender:       types.String("female"),
		Phone:        types.String("0898765432"),
		LicensePlate: types.String("AB12"),
	}
	for _, excluded := range types.AllFields() {
		var fields []types.Field
		for _, f := range types.AllFields() {
			if f != excluded {
				fields = append(fields, f)
			}
		}
		merged := Merge(old, partial, fields)
		if types.Value(merged.Get(excluded)) != types.Value(old.Get(excluded)) {
			t.Errorf("%s changed although it was not requested", excluded)
		}
		for _, f := range fields {
			if types.Value(merged.Get(f)) != types.Value(partial.Get(f)) {
				t.Errorf("%s was requested but not merged", f)
			}
		}
	}
}

func TestMergeDoesNotAliasInputs(t *testing.T) {
	t.Parallel()
	old := sampleRecord()
	merged := Merge(old, types.Record{}, nil)
	*merged.Phone = "changed"
	if types.Value(old.Phone) != "0812345678" {
		t.Error("merged record shares storage with the old record")
	}
}

func TestOperations(t *testing.T) {
	t.Parallel()
	old := sampleRecord()
	partial := types.Record{FirstName: types.String("สมชาย"), Phone: types.String("0811111111")}
	ops := Operations(old, partial, []types.Field{types.FieldFirstName, types.FieldPhone, types.FieldPhone, "email"})
	want := []Operation{
		{Op: OperationAdd, Path: "/first_name", Value: "สมชาย"},
		{Op: OperationReplace, Path: "/phone", Value: "0811111111"},
	}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("Operations() = %+v, want %+v", ops, want)
	}
}

func TestValidatePatchOperations(t *testing.T) {
	t.Parallel()
	allowed := AllowedPaths([]types.Field{types.FieldPhone})
	if err := ValidatePatchOperations([]Operation{{Op: OperationReplace, Path: "/phone", Value: "1"}}, allowed); err != nil {
		t.Errorf("allowed path rejected: %v", err)
	}
	if err := ValidatePatchOperations([]Operation{{Op: OperationReplace, Path: "/gender", Value: "male"}}, allowed); err == nil {
		t.Error("path outside the allowed set should be rejected")
	}
}

func TestApplyRFC6902(t *testing.T) {
	t.Parallel()
	got, err := ApplyRFC6902(types.Record{}, []Operation{
		{Op: OperationAdd, Path: "/license_plate", Value: "กข1234"},
	})
	if err != nil {
		t.Fatalf("ApplyRFC6902: %v", err)
	}
	if types.Value(got.LicensePlate) != "กข1234" {
		t.Errorf("license_plate = %q", types.Value(got.LicensePlate))
	}
	if got.FirstName != nil {
		t.Error("untouched fields should stay absent")
	}
}

func TestApplyDirect(t *testing.T) {
	t.Parallel()
	got := applyDirect(types.Record{}, []Operation{
		{Op: OperationAdd, Path: "/gender", Value: "female"},
		{Op: OperationRemove, Path: "/phone"},
		{Op: OperationAdd, Path: "/nickname", Value: "x"},
	})
	if types.Value(got.Gender) != "female" || got.Phone != nil {
		t.Errorf("applyDirect() = %+v", got)
	}
}
