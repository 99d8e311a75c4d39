// Package thought pulls delimited reasoning spans out of model text and
// merges reasoning text that arrives across several chunks.
package thought

import (
	"regexp"
	"strings"
	"unicode"
)

// Thought span delimiters. Matching is case-insensitive.
const (
	OpenTag  = "<think>"
	CloseTag = "</think>"
)

// separator joins independent thought blocks.
const separator = "\n\n"

var spanPattern = regexp.MustCompile(`(?is)` + regexp.QuoteMeta(OpenTag) + `(.*?)` + regexp.QuoteMeta(CloseTag))

// Extraction is the result of Extract.
type Extraction struct {
	CleanText   string
	ThoughtText string
}

// HasThought reports whether any span content was captured.
func (e Extraction) HasThought() bool {
	return e.ThoughtText != ""
}

// Extract removes every thought span from raw. The captured contents are
// trimmed and joined with a blank line; the remaining text loses its leading
// whitespace. Text without spans comes back unchanged with an empty thought.
func Extract(raw string) Extraction {
	matches := spanPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return Extraction{CleanText: raw}
	}

	thoughts := make([]string, 0, len(matches))
	for _, m := range matches {
		if t := strings.TrimSpace(m[1]); t != "" {
			thoughts = append(thoughts, t)
		}
	}

	clean := spanPattern.ReplaceAllString(raw, "")
	return Extraction{
		CleanText:   strings.TrimLeftFunc(clean, unicode.IsSpace),
		ThoughtText: strings.Join(thoughts, separator),
	}
}

// Strip returns raw without thought spans.
func Strip(raw string) string {
	return Extract(raw).CleanText
}

// MergeThoughts unions two complete thought blocks without duplicating
// either. Calling it again with the same incoming text is a no-op.
func MergeThoughts(existing, incoming string) string {
	switch {
	case strings.TrimSpace(incoming) == "":
		return existing
	case strings.TrimSpace(existing) == "":
		return incoming
	case strings.Contains(existing, incoming):
		return existing
	case strings.Contains(incoming, existing):
		return incoming
	default:
		return existing + separator + incoming
	}
}

// SplitPending separates a streamed answer into the part that can be shown
// and a trailing thought span whose close tag has not arrived yet. Without
// an open span, pending is "".
func SplitPending(raw string) (settled, pending string) {
	open := lastIndexFold(raw, OpenTag)
	if open < 0 {
		return raw, ""
	}
	rest := raw[open+len(OpenTag):]
	if lastIndexFold(rest, CloseTag) >= 0 {
		return raw, ""
	}
	return raw[:open], rest
}

// lastIndexFold is strings.LastIndex with ASCII case folding. Byte offsets
// stay valid for the original string.
func lastIndexFold(s, substr string) int {
	for i := len(s) - len(substr); i >= 0; i-- {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
