// Package models defines data structures for the StructSim console.
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Record is one configuration entity as exchanged with the platform API.
// Keys are camelCase field names; values are whatever the JSON decoder
// produced (float64, string, bool, nil, []any, map[string]any) or what
// the caller set through a draft.
type Record map[string]any

// Well-known field names shared by every configuration entity.
const (
	FieldID     = "id"
	FieldName   = "name"
	FieldCode   = "code"
	FieldSort   = "sort"
	FieldRemark = "remark"
	FieldValid  = "valid"
)

// ID returns the numeric id of the record. The second return value is false
// when the record has not been saved yet (no id, null id or a non-positive id).
func (r Record) ID() (int64, bool) {
	if r == nil {
		return 0, false
	}
	v, ok := r[FieldID]
	if !ok || v == nil {
		return 0, false
	}
	id, ok := toInt64(v)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// Name returns the display name, falling back to the code and then the id.
func (r Record) Name() string {
	if s := r.String(FieldName); s != "" {
		return s
	}
	if s := r.String(FieldCode); s != "" {
		return s
	}
	if id, ok := r.ID(); ok {
		return fmt.Sprintf("#%d", id)
	}
	return ""
}

// String returns the field as a string. Numbers are formatted without a
// trailing ".0"; missing or nil fields return "".
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Float returns the field as a float64 when it holds a number.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	return toFloat64(v)
}

// Int returns the field as an int64 when it holds an integral number.
func (r Record) Int(key string) (int64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	return toInt64(v)
}

// Sort returns the ordering hint, or the largest int64 when the record has none
// so unsorted records end up last.
func (r Record) Sort() int64 {
	if s, ok := r.Int(FieldSort); ok {
		return s
	}
	return math.MaxInt64
}

// Clone returns a deep copy of the record. Nested maps and slices are copied
// so that mutating the clone never touches the original.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge returns a deep copy of r with every key of patch applied on top.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}

// Keys returns the field names in lexical order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CloneRecords deep-copies a slice of records.
func CloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// SortRecords orders records by their sort hint and then by id, in place.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		si, sj := records[i].Sort(), records[j].Sort()
		if si != sj {
			return si < sj
		}
		ii, _ := records[i].ID()
		ij, _ := records[j].ID()
		return ii < ij
	})
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return t.Clone()
	case map[string]any:
		return map[string]any(Record(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []Record:
		return CloneRecords(t)
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = map[string]any(Record(e).Clone())
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case []int64:
		return append([]int64(nil), t...)
	case []float64:
		return append([]float64(nil), t...)
	default:
		return v
	}
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case float32:
		if float32(int64(t)) != t {
			return 0, false
		}
		return int64(t), true
	case float64:
		if math.Trunc(t) != t || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		i, err := t.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(t, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
