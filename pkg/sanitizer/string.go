package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses every whitespace run,
// newlines included, to a single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else if unicode.IsControl(r) {
			continue
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeTitle(title string) string {
	return TrimAndNormalize(title)
}

// NormalizeReason keeps line breaks so multi-line reasons survive, but trims
// each line and drops blank ones.
func NormalizeReason(reason string) string {
	lines := strings.Split(reason, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = TrimAndNormalize(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
