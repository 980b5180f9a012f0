package validator

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	RgxEmail = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+\\/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

	// RgxPinCode matches an Indian postal index number.
	RgxPinCode = regexp.MustCompile(`^[1-9][0-9]{5}$`)

	// RgxMobile matches a 10-digit Indian mobile number.
	RgxMobile = regexp.MustCompile(`^[0-9]{10}$`)

	// RgxAadhaar matches a 12-digit Aadhaar number grouped as XXXX XXXX XXXX.
	RgxAadhaar = regexp.MustCompile(`^\d{4} \d{4} \d{4}$`)

	// RgxPan matches the 8-character alphanumeric PAN format used on the portal.
	RgxPan = regexp.MustCompile(`^[A-Z0-9]{8}$`)
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MinRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) >= n
}

func MaxRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

func Between[T cmp.Ordered](value, min, max T) bool {
	return value >= min && value <= max
}

func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}

func In[T comparable](value T, safelist ...T) bool {
	return slices.Contains(safelist, value)
}

func AllIn[T comparable](values []T, safelist ...T) bool {
	for _, value := range values {
		if !slices.Contains(safelist, value) {
			return false
		}
	}
	return true
}

func NotIn[T comparable](value T, blocklist ...T) bool {
	return !slices.Contains(blocklist, value)
}

func NoDuplicates[T comparable](values []T) bool {
	uniqueValues := make(map[T]bool)

	for _, value := range values {
		uniqueValues[value] = true
	}

	return len(values) == len(uniqueValues)
}

func IsEmail(value string) bool {
	if len(value) > 254 {
		return false
	}

	return RgxEmail.MatchString(value)
}
