// Package phone validates Senegalese mobile numbers and formats them for the gateway.
package phone

import (
	"regexp"
	"strings"
	"unicode"
)

// CountryCode is the international dialing code of the supported numbering plan.
const CountryCode = "221"

var (
	// Optional country code followed by a mobile prefix (70, 75, 76, 77, 78) and 7 digits.
	localPattern = regexp.MustCompile(`^(\+221|221)?(7[05-8][0-9]{7})$`)

	internationalPattern = regexp.MustCompile(`^\+2217[05-8][0-9]{7}$`)
)

// Normalize validates raw and returns it in +221XXXXXXXXX form.
// When raw is not a valid mobile number it returns false and raw unchanged.
func Normalize(raw string) (bool, string) {
	cleaned := strings.Map(dropSeparator, raw)

	match := localPattern.FindStringSubmatch(cleaned)
	if match == nil {
		return false, raw
	}

	formatted := "+" + CountryCode + match[2]
	if !internationalPattern.MatchString(formatted) {
		return false, raw
	}
	return true, formatted
}

// dropSeparator removes any Unicode whitespace and the - . ( ) punctuation.
func dropSeparator(r rune) rune {
	if unicode.IsSpace(r) {
		return -1
	}
	switch r {
	case '-', '.', '(', ')':
		return -1
	}
	return r
}

// International prefixes a bare local number with the country code, dropping
// leading zeros. Numbers already starting with "+" are returned as is.
func International(number string) string {
	if strings.HasPrefix(number, "+") {
		return number
	}
	return "+" + CountryCode + strings.TrimLeft(number, "0")
}
