package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	reTrailingLabels = regexp.MustCompile(`(?i)\s*(?:state|district|village|patta\s*holder)\s*$`)
	reCodeLike       = regexp.MustCompile(`[0-9\-/]`)
)

// CleanValue keeps the first line of a capture, strips label words that
// leaked in from the next field and collapses whitespace.
func CleanValue(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = reTrailingLabels.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// TitleOrKeep title-cases s unless it looks like a code (digits, hyphens, slashes).
func TitleOrKeep(s string) string {
	if s == "" || reCodeLike.MatchString(s) {
		return s
	}
	// cases.Caser is stateful; one per call.
	return cases.Title(language.Und).String(s)
}

// Normalize puts s in NFC, collapses whitespace and applies TitleOrKeep.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	return TitleOrKeep(strings.Join(strings.Fields(s), " "))
}

// Key is the comparison form used for case- and whitespace-insensitive dedup.
func Key(s string) string {
	s = norm.NFC.String(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
