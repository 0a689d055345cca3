package api

import (
	"strings"
	"unicode"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

// The console works with camelCase field names while the backend speaks
// snake_case. Translation happens only here, on the way in and out.

// ToSnakeCase converts every map key in v from camelCase to snake_case,
// recursing into nested maps and slices. Other values are returned as is.
//
//	{"cpuCoreMin": 1} => {"cpu_core_min": 1}
func ToSnakeCase(v any) any {
	return convertKeys(v, snakeKey)
}

// ToCamelCase converts every map key in v from snake_case to camelCase.
//
//	{"cpu_core_min": 1} => {"cpuCoreMin": 1}
func ToCamelCase(v any) any {
	return convertKeys(v, camelKey)
}

func convertKeys(v any, conv func(string) string) any {
	switch t := v.(type) {
	case models.Record:
		return convertKeys(map[string]any(t), conv)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[conv(k)] = convertKeys(val, conv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = convertKeys(val, conv)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = convertKeys(val, conv)
		}
		return out
	default:
		return v
	}
}

// snakeKey turns every upper-case letter into "_" plus its lower-case form.
func snakeKey(k string) string {
	var b strings.Builder
	b.Grow(len(k) + 4)
	for _, r := range k {
		if unicode.IsUpper(r) && r < unicode.MaxASCII {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// camelKey drops each "_" that precedes a lower-case ASCII letter and
// upper-cases that letter. Other underscores are kept.
func camelKey(k string) string {
	if !strings.Contains(k, "_") {
		return k
	}
	var b strings.Builder
	b.Grow(len(k))
	for i := 0; i < len(k); i++ {
		c := k[i]
		if c == '_' && i+1 < len(k) && k[i+1] >= 'a' && k[i+1] <= 'z' {
			b.WriteByte(k[i+1] - 'a' + 'A')
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
