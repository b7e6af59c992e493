package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips every HTML element from user supplied free text. The
// policy entity-escapes what is left, so the result is unescaped again and
// "O'Brien & Co" is stored as typed.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// SanitizeDetails walks a customization record and sanitizes every string
// value in it, including strings nested in maps and slices. The input is not
// modified.
func SanitizeDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}

	out := make(map[string]any, len(details))
	for k, v := range details {
		out[SanitizeText(k)] = sanitizeValue(v)
	}

	return out
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return SanitizeText(val)
	case map[string]any:
		return SanitizeDetails(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = sanitizeValue(e)
		}
		return out
	default:
		return val
	}
}
