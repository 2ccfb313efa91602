// Package utils provides shared helper functions.
package utils

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp returns the current time as an ISO 8601 string.
func Timestamp() string {
	return time.Now().Format(time.RFC3339)
}

// TruncateString truncates a string to maxLen, adding suffix if truncated.
func TruncateString(s string, maxLen int, suffix string) string {
	if len(s) <= maxLen {
		return s
	}
	if suffix == "" {
		suffix = "..."
	}
	cutoff := maxLen - len(suffix)
	if cutoff < 0 {
		cutoff = 0
	}
	return s[:cutoff] + suffix
}

// FormatPrice renders an amount in rupees with thousands separators,
// e.g. ₹12,345.
func FormatPrice(amount float64) string {
	n := int64(amount + 0.5)
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		s = s[1:]
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := "₹" + strings.Join(parts, ",")
	if n < 0 {
		out = "-" + out
	}
	return out
}

// Stars renders a 0-5 rating as filled and empty stars.
func Stars(rating float64) string {
	full := int(rating)
	if full > 5 {
		full = 5
	}
	if full < 0 {
		full = 0
	}
	return strings.Repeat("★", full) + strings.Repeat("☆", 5-full)
}
