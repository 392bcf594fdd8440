package security

import (
	"strings"
	"unicode"
)

// SanitizeName trims a display name, drops control and markup characters and
// caps it at maxLen runes. A non-positive maxLen disables truncation.
func SanitizeName(name string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsControl(r):
			continue
		case strings.ContainsRune("<>\"'`", r):
			continue
		}
		b.WriteRune(r)
	}

	out := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(out)
		if len(runes) > maxLen {
			out = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return out
}
