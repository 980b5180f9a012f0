// Package tracking derives the short display code that correlates a
// citizen with their submitted application without exposing the full
// identity numbers.
package tracking

import (
	"regexp"
	"strings"
)

var shape = regexp.MustCompile(`^[A-Z]{4} [0-9]{4} [A-Z0-9]{4}$`)

// Derive maps the applicant's name, Aadhaar number and PAN to the
// fixed "XXXX 0000 XXXX" code. It is deterministic and total: empty or
// malformed inputs fall back to the X/0 padding. Names arrive
// uppercased from the form layer; lowercase letters are stripped, not
// folded.
func Derive(name, aadhaarNo, panNo string) string {
	namePart := pad(keep(name, isUpper), 'X')

	digits := keep(aadhaarNo, isDigit)
	aadhaarPart := digits
	if len(aadhaarPart) > 4 {
		aadhaarPart = aadhaarPart[len(aadhaarPart)-4:]
	}
	for len(aadhaarPart) < 4 {
		aadhaarPart = "0" + aadhaarPart
	}

	panPart := pad(strings.ToUpper(keep(panNo, isAlphanumeric)), 'X')

	return namePart + " " + aadhaarPart + " " + panPart
}

// Valid reports whether id has the derived-code shape.
func Valid(id string) bool {
	return shape.MatchString(id)
}

// Normalize reproduces the search-box input treatment: uppercase,
// strip everything that is not a letter or digit, cap at twelve
// characters and regroup in fours, so "raje-9012-ab12" and
// "RAJE 9012 AB12" resolve to the same code.
func Normalize(input string) string {
	chars := keep(strings.ToUpper(input), isAlphanumeric)
	if len(chars) > 12 {
		chars = chars[:12]
	}

	var b strings.Builder
	for i := 0; i < len(chars); i++ {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(chars[i])
	}
	return b.String()
}

func pad(s string, fill byte) string {
	for len(s) < 4 {
		s += string(fill)
	}
	return s[:4]
}

func keep(s string, ok func(byte) bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if ok(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isUpper(c byte) bool        { return c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool        { return c >= '0' && c <= '9' }
func isAlphanumeric(c byte) bool { return isUpper(c) || isDigit(c) || (c >= 'a' && c <= 'z') }
