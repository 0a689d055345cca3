// Package sanitize cleans text typed or pasted into entity drafts.
//
// Values copied from spreadsheets and chat tools often carry:
//   - Windows/Mac line endings (CRLF/CR → LF)
//   - Invisible Unicode characters (zero-width spaces, BOM, soft hyphens)
//   - Runs of spaces and tabs
package sanitize

import (
	"regexp"
	"strings"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

// multilineFields keep their line breaks.
var multilineFields = map[string]bool{
	"description": true,
	"remark":      true,
}

var (
	blanks   = regexp.MustCompile(`[ \t]+`)
	newlines = regexp.MustCompile(`\n{3,}`)
)

// invisible lists zero-width and other invisible characters to remove.
var invisible = strings.NewReplacer(
	"\u200B", "", // Zero-width space
	"\u200C", "", // Zero-width non-joiner
	"\u200D", "", // Zero-width joiner
	"\uFEFF", "", // Zero-width no-break space (BOM)
	"\u00AD", "", // Soft hyphen
	"\u2060", "", // Word joiner
	"\u180E", "", // Mongolian vowel separator
)

// Text cleans a single-line value: invisible characters are removed, any
// whitespace run (line breaks included) becomes one space, and the ends are
// trimmed.
func Text(s string) string {
	if s == "" {
		return s
	}
	s = invisible.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// Multiline cleans a free-text value. Line endings become LF, spaces and
// tabs inside a line collapse, and more than one blank line collapses to one.
func Multiline(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = invisible.Replace(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(blanks.ReplaceAllString(line, " "))
	}
	s = newlines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}

// Record returns a copy of rec with every top-level string value cleaned.
// Other values are kept as they are.
func Record(rec models.Record) models.Record {
	if rec == nil {
		return nil
	}
	out := make(models.Record, len(rec))
	for k, v := range rec {
		s, ok := v.(string)
		switch {
		case !ok:
			out[k] = v
		case multilineFields[k]:
			out[k] = Multiline(s)
		default:
			out[k] = Text(s)
		}
	}
	return out
}
