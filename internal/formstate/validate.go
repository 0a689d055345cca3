package formstate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

// Validation messages shown next to a field.
const (
	MsgRequired = "此字段为必填项"
	MsgPattern  = "格式不正确"
)

// Rule constrains one field. Min and Max apply to numbers, Pattern to
// strings, Custom to any present value and returns "" when it is valid.
type Rule struct {
	Required bool
	Min      *float64
	Max      *float64
	Pattern  *regexp.Regexp
	Custom   func(value any) string
}

// Bound returns a pointer for Rule.Min and Rule.Max.
func Bound(v float64) *float64 { return &v }

// Validate checks data against rules and returns the failing fields. A
// missing, nil or empty-string value fails Required and skips every other
// check. When several checks fail the last one wins.
func Validate[R ~map[string]any](data R, rules map[string]Rule) map[string]string {
	errs := map[string]string{}
	rec := models.Record(data)

	for field, rule := range rules {
		value, present := rec[field]
		if !present || value == nil || value == "" {
			if rule.Required {
				errs[field] = MsgRequired
			}
			continue
		}

		if n, ok := rec.Float(field); ok {
			if rule.Min != nil && n < *rule.Min {
				errs[field] = "最小值为 " + formatNumber(*rule.Min)
			}
			if rule.Max != nil && n > *rule.Max {
				errs[field] = "最大值为 " + formatNumber(*rule.Max)
			}
		}
		if s, ok := value.(string); ok && rule.Pattern != nil && !rule.Pattern.MatchString(s) {
			errs[field] = MsgPattern
		}
		if rule.Custom != nil {
			if msg := rule.Custom(value); msg != "" {
				errs[field] = msg
			}
		}
	}
	return errs
}

// ValidationError reports fields rejected before anything was sent.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns nil when fields is empty.
func NewValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Summary()
}

// Summary lists the rejected fields as "field: message", sorted by field.
func (e *ValidationError) Summary() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// FieldErrors returns the rejected fields.
func (e *ValidationError) FieldErrors() map[string]string { return e.Fields }

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
