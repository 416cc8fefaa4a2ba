// Package transcript normalizes recognized speech before it reaches
// the composer.
package transcript

import "strings"

// Clean trims leading and trailing whitespace from a hypothesis. The
// interior spacing is the engine's own output and survives untouched.
func Clean(text string) string {
	return strings.TrimSpace(text)
}

// Join merges final hypothesis segments into one utterance, a single
// space between segments, blank segments dropped.
func Join(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}
