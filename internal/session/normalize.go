package session

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeNumber parses a typed amount. Grouping commas and spaces are ignored;
// anything unparseable or not finite yields 0.
func NormalizeNumber(s string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TitleCase capitalizes every word and lowercases the rest. It is idempotent.
func TitleCase(s string) string {
	// Casers carry state and are not safe for concurrent use.
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}

// FormatDateInput reformats a partially typed date into YYYY-MM-DD using only its digits,
// inserting separators after the 4th and 6th digit.
func FormatDateInput(s string) string {
	digits := make([]rune, 0, 8)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
			if len(digits) == 8 {
				break
			}
		}
	}

	var b strings.Builder
	for i, r := range digits {
		if i == 4 || i == 6 {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeBool reads yes/no style answers. Unrecognized input is false.
func NormalizeBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "signed", "paid":
		return true
	}
	return false
}
