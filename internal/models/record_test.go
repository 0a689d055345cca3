package models

import (
	"encoding/json"
	"testing"
)

func TestRecordID(t *testing.T) {
	tests := []struct {
		name   string
		rec    Record
		wantID int64
		wantOK bool
	}{
		{"nil record", nil, 0, false},
		{"missing id", Record{"name": "x"}, 0, false},
		{"null id", Record{"id": nil}, 0, false},
		{"zero id", Record{"id": 0}, 0, false},
		{"int id", Record{"id": 7}, 7, true},
		{"float id from JSON", Record{"id": float64(12)}, 12, true},
		{"fractional id", Record{"id": 1.5}, 0, false},
		{"json number", Record{"id": json.Number("42")}, 42, true},
		{"string id", Record{"id": "9"}, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := tt.rec.ID()
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("ID() = (%d, %v), want (%d, %v)", id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestRecordCloneIsDeep(t *testing.T) {
	orig := Record{
		"id":   float64(1),
		"name": "项目A",
		"enumOptions": []any{
			map[string]any{"value": "a", "label": "A"},
		},
		"conditionSchema": map[string]any{"type": "object"},
	}

	c := orig.Clone()
	c["name"] = "项目B"
	c["enumOptions"].([]any)[0].(map[string]any)["label"] = "changed"
	c["conditionSchema"].(map[string]any)["type"] = "array"

	if orig["name"] != "项目A" {
		t.Errorf("top-level field leaked into original: %v", orig["name"])
	}
	if got := orig["enumOptions"].([]any)[0].(map[string]any)["label"]; got != "A" {
		t.Errorf("nested slice element leaked into original: %v", got)
	}
	if got := orig["conditionSchema"].(map[string]any)["type"]; got != "object" {
		t.Errorf("nested map leaked into original: %v", got)
	}
}

func TestRecordMerge(t *testing.T) {
	base := Record{"name": "", "sort": 100}
	merged := base.Merge(Record{"name": "NASTRAN"})

	if merged["name"] != "NASTRAN" || merged["sort"] != 100 {
		t.Errorf("unexpected merge result: %v", merged)
	}
	if base["name"] != "" {
		t.Errorf("Merge mutated receiver: %v", base)
	}
}

func TestRecordString(t *testing.T) {
	r := Record{"a": float64(3), "b": 2.5, "c": "x", "d": nil, "e": true}
	cases := map[string]string{"a": "3", "b": "2.5", "c": "x", "d": "", "e": "true", "missing": ""}
	for key, want := range cases {
		if got := r.String(key); got != want {
			t.Errorf("String(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestRecordName(t *testing.T) {
	if got := (Record{"name": "Solver", "code": "S"}).Name(); got != "Solver" {
		t.Errorf("Name() = %q, want Solver", got)
	}
	if got := (Record{"code": "S"}).Name(); got != "S" {
		t.Errorf("Name() = %q, want S", got)
	}
	if got := (Record{"id": 4}).Name(); got != "#4" {
		t.Errorf("Name() = %q, want #4", got)
	}
}

func TestSortRecords(t *testing.T) {
	records := []Record{
		{"id": 3, "sort": 200},
		{"id": 2},
		{"id": 1, "sort": 100},
		{"id": 4, "sort": 100},
	}
	SortRecords(records)

	want := []int64{1, 4, 3, 2}
	for i, r := range records {
		id, _ := r.ID()
		if id != want[i] {
			t.Fatalf("position %d: got id %d, want %d (order %v)", i, id, want[i], records)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"project":      KindProject,
		"projects":     KindProject,
		"simType":      KindSimType,
		"sim-types":    KindSimType,
		"sim_type":     KindSimType,
		"SOLVER":       KindSolver,
		"param-defs":   KindParamDef,
		"conditionDef": KindConditionDef,
		"output-def":   KindOutputDef,
		" fold-types ": KindFoldType,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		if err != nil {
			t.Errorf("ParseKind(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseKind(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseKind("workflow"); err == nil {
		t.Error("ParseKind(workflow) should fail")
	}
}

func TestKindTableComplete(t *testing.T) {
	for _, k := range AllKinds {
		if !k.Valid() {
			t.Errorf("%s is not valid", k)
		}
		if k.Resource() == "" || k.Command() == "" {
			t.Errorf("%s is missing resource or command", k)
		}
	}
	if Kind("nope").Valid() {
		t.Error("unknown kind reported valid")
	}
}

func TestUserHasPermission(t *testing.T) {
	u := &User{PermissionCodes: []Permission{PermManageConfig}}
	if !u.HasPermission(PermManageConfig) {
		t.Error("expected MANAGE_CONFIG through permission codes")
	}
	u.Permissions = []Permission{PermViewOrders}
	if u.HasPermission(PermManageConfig) {
		t.Error("explicit permissions should take precedence over codes")
	}
	var nilUser *User
	if nilUser.HasPermission(PermViewOrders) {
		t.Error("nil user has no permissions")
	}
}
