// Package phone normalizes WhatsApp recipient numbers.
package phone

import (
	"errors"
	"strings"
)

const (
	MinDigits = 8
	MaxDigits = 15

	// Numbers with at most this many digits are treated as national and get the default country code.
	nationalMaxDigits = 11

	DefaultCountryCode = "55"
)

var ErrInvalid = errors.New("invalid phone number")

// Digits strips everything but ASCII digits.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether raw looks like a phone number: digits with optional
// leading '+' and common separators, 8 to 15 digits in total.
func Valid(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	n := len(Digits(raw))
	return n >= MinDigits && n <= MaxDigits
}

// Normalize returns the digits-only form including the country code.
// National numbers (up to 11 digits) are prefixed with countryCode.
func Normalize(raw, countryCode string) (string, error) {
	if !Valid(raw) {
		return "", ErrInvalid
	}

	digits := Digits(raw)
	if len(digits) <= nationalMaxDigits && !strings.HasPrefix(strings.TrimSpace(raw), "+") {
		if countryCode == "" {
			countryCode = DefaultCountryCode
		}
		digits = Digits(countryCode) + digits
	}

	if len(digits) > MaxDigits {
		return "", ErrInvalid
	}
	return digits, nil
}
