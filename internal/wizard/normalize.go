package wizard

import (
	"strings"
)

// NormalizeName uppercases free-text identity fields the way the form
// input does.
func NormalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeDigits strips everything but digits and, when max > 0,
// truncates to max digits.
func NormalizeDigits(s string, max int) string {
	digits := filterDigits(s)
	if max > 0 && len(digits) > max {
		digits = digits[:max]
	}
	return digits
}

// NormalizeAadhaar keeps at most 12 digits, grouped as XXXX XXXX XXXX.
func NormalizeAadhaar(s string) string {
	digits := filterDigits(s)
	if len(digits) > 12 {
		digits = digits[:12]
	}

	var b strings.Builder
	for i := 0; i < len(digits); i++ {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(digits[i])
	}
	return b.String()
}

// NormalizePan keeps at most 8 alphanumeric characters, uppercased.
func NormalizePan(s string) string {
	var b strings.Builder
	for i := 0; i < len(s) && b.Len() < 8; i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'Z':
			b.WriteByte(c)
		case c >= 'a' && c <= 'z':
			b.WriteByte(c - 'a' + 'A')
		}
	}
	return b.String()
}

func filterDigits(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
