package utils

// Truncate shortens s to at most maxLen runes for log lines, appending "..."
// when anything was cut. Multi-byte characters are never split.
func Truncate(s string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	if len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
