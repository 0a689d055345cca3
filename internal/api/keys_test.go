package api

import (
	"reflect"
	"testing"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

func TestToSnakeCase(t *testing.T) {
	in := models.Record{
		"cpuCoreMin": 1,
		"name":       "x",
		"enumOptions": []any{
			map[string]any{"displayLabel": "A"},
		},
		"conditionSchema": map[string]any{"maxValue": 3},
	}

	got := ToSnakeCase(in)
	want := map[string]any{
		"cpu_core_min": 1,
		"name":         "x",
		"enum_options": []any{
			map[string]any{"display_label": "A"},
		},
		"condition_schema": map[string]any{"max_value": 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToSnakeCase() = %#v\nwant %#v", got, want)
	}
}

func TestToCamelCase(t *testing.T) {
	in := map[string]any{
		"cpu_core_default": 8,
		"trace_id":         "t",
		"items":            []any{map[string]any{"val_type": 1}},
		"x_1":              true,
	}

	got := ToCamelCase(in)
	want := map[string]any{
		"cpuCoreDefault": 8,
		"traceId":        "t",
		"items":          []any{map[string]any{"valType": 1}},
		"x_1":            true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToCamelCase() = %#v\nwant %#v", got, want)
	}
}

func TestKeyConversionLeavesScalarsAlone(t *testing.T) {
	for _, v := range []any{nil, 3, "snake_case", true} {
		if got := ToCamelCase(v); got != v {
			t.Errorf("ToCamelCase(%v) = %v", v, got)
		}
		if got := ToSnakeCase(v); got != v {
			t.Errorf("ToSnakeCase(%v) = %v", v, got)
		}
	}
}
