package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/util/sanitize"
)

// draftFlags collects field values for create and edit.
type draftFlags struct {
	sets []string
	file string
}

func (d *draftFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArrayVar(&d.sets, "set", nil, "Set a field, e.g. --set name=NASTRAN --set cpuCoreMax=128 (repeatable)")
	flags.StringVarP(&d.file, "file", "f", "", "YAML or JSON file with field values (applied before --set)")
	flags.Bool("validate", false, "Check required fields and ranges locally before sending the draft")
}

func (d *draftFlags) empty() bool {
	return len(d.sets) == 0 && d.file == ""
}

// fields returns the file's fields overlaid with the --set values, with
// string values cleaned of pasted invisible characters and stray whitespace.
func (d *draftFlags) fields() (models.Record, error) {
	out := models.Record{}
	if d.file != "" {
		fromFile, err := loadDraftFile(d.file)
		if err != nil {
			return nil, err
		}
		out = fromFile
		delete(out, models.FieldID)
	}
	for _, s := range d.sets {
		key, value, err := parseSet(s)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return sanitize.Record(out), nil
}

// loadDraftFile reads a YAML mapping of field names to values. JSON is
// valid YAML, so .json files work too.
func loadDraftFile(path string) (models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft file: %w", err)
	}
	var rec map[string]any
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse draft file %s: %w", path, err)
	}
	if rec == nil {
		return models.Record{}, nil
	}
	return models.Record(rec), nil
}

// parseSet splits key=value. The value is typed: integers and floats become
// numbers, true/false become booleans, null clears the field, and values
// starting with [ or { are decoded as JSON. Quote a value ('"100"') to keep
// it a string.
func parseSet(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid --set %q: expected key=value", s)
	}
	if key == models.FieldID {
		return "", nil, fmt.Errorf("invalid --set %q: id cannot be changed", s)
	}
	return key, parseValue(raw), nil
}

func parseValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, `"`) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return raw
}
