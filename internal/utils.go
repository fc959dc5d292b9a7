package internal

import (
	"strings"
	"unicode"
)

// maxFilenameRunes bounds names derived from long sentences
const maxFilenameRunes = 100

// SanitizeFilename creates a safe filename from a string. Letters, digits,
// '-' and '_' are kept; everything else becomes '_'.
func SanitizeFilename(s string) string {
	var sb strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if n == maxFilenameRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
		n++
	}
	return sb.String()
}
