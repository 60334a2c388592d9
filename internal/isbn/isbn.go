// Package isbn normalises and converts book identifiers read from barcodes
// or typed by hand.
package isbn

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Clean trims the identifier, folds full-width characters to ASCII and drops
// whitespace and hyphens. A trailing x check digit is upper-cased.
// " 978-0-13-468599-1 " and "9780134685991" clean to the same value.
func Clean(raw string) string {
	folded := width.Narrow.String(raw)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r), r == '-', r == '‐', r == '‑':
			continue
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.HasSuffix(out, "x") {
		out = out[:len(out)-1] + "X"
	}
	return out
}

// Valid reports whether s is a well-formed ISBN-10 or ISBN-13 with a
// correct check digit. s must already be cleaned.
func Valid(s string) bool {
	switch len(s) {
	case 10:
		return To13(s) != "" && checkDigit10(s[:9]) == s[9:]
	case 13:
		return isDigits(s) && checkDigit13(s[:12]) == s[12:]
	default:
		return false
	}
}

// To13 converts an ISBN-10 to ISBN-13 by prepending 978 and computing the check digit.
// Returns an empty string if the input is not a valid ISBN-10.
func To13(isbn10 string) string {
	if len(isbn10) != 10 || !isDigits(isbn10[:9]) {
		return ""
	}
	last := isbn10[9]
	if last != 'X' && (last < '0' || last > '9') {
		return ""
	}
	base := "978" + isbn10[:9]
	return base + checkDigit13(base)
}

// To10 converts a 978-prefixed ISBN-13 to ISBN-10.
// Returns an empty string if the input is not a convertible ISBN-13.
func To10(isbn13 string) string {
	if len(isbn13) != 13 || !strings.HasPrefix(isbn13, "978") || !isDigits(isbn13) {
		return ""
	}
	base := isbn13[3:12]
	return base + checkDigit10(base)
}

func checkDigit13(base string) string {
	sum := 0
	for i, c := range base {
		d := int(c - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	return strconv.Itoa((10 - sum%10) % 10)
}

func checkDigit10(base string) string {
	sum := 0
	for i, c := range base {
		sum += int(c-'0') * (10 - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return "X"
	}
	return strconv.Itoa(check)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
