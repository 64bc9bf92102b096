package domain

import (
	"strings"
	"unicode"
)

// Retailer is the canonical tag of a supported retail chain.
type Retailer string

const (
	RetailerABVassilopoulos Retailer = "AB_VASSILOPOULOS"
	RetailerLidl            Retailer = "LIDL"
)

var knownRetailers = []Retailer{RetailerABVassilopoulos, RetailerLidl}

// ParseRetailer maps a free-text label to its canonical tag.
// Matching is case-insensitive and ignores every non-letter rune.
func ParseRetailer(label string) (Retailer, bool) {
	key := lettersOnly(label)
	if key == "" {
		return "", false
	}
	for _, r := range knownRetailers {
		if lettersOnly(string(r)) == key {
			return r, true
		}
	}
	return "", false
}

func lettersOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
