package extract

import (
	"strings"
	"time"
)

// pdf date cores from most to least precise, per the D:YYYYMMDDHHmmSS form.
var dateCores = []string{
	"20060102150405",
	"200601021504",
	"2006010215",
	"20060102",
	"200601",
	"2006",
}

// NormalizeDate converts a PDF date string ("D:20240101123045+02'00'" and
// truncations thereof) to ISO-8601 text. Strings that already parse as
// ISO-8601 pass through unchanged. Returns nil when the input is empty or
// unrecognizable, so absence stays explicit.
func NormalizeDate(raw string) *string {
	// Values read out of fixed-size C buffers arrive NUL padded.
	s := strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		out := t.Format(time.RFC3339)
		return &out
	}

	s = strings.TrimPrefix(s, "D:")
	s = strings.TrimSuffix(s, "'")
	s = strings.ReplaceAll(s, "'", ":")

	for _, core := range dateCores {
		if t, err := time.Parse(core+"-07:00", s); err == nil {
			out := t.Format(time.RFC3339)
			return &out
		}
		if t, err := time.Parse(core+"Z07:00", s); err == nil {
			out := t.Format(time.RFC3339)
			return &out
		}
		if t, err := time.Parse(core, s); err == nil {
			out := t.UTC().Format(time.RFC3339)
			return &out
		}
	}
	return nil
}
