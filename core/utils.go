package core

import (
	"strings"
	"time"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// DateKey formats t the way attendance records are keyed in the store (YYYY-MM-DD).
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
