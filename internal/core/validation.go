package core

// validation.go provides row-level validation for import rows.
//
// Every rule is evaluated independently and all violations for a row are
// returned, so a caller can show a complete diagnostic in one pass. A row
// with any violation is excluded from the accepted set by Parse.

import (
	"fmt"
	"net/url"
	"regexp"
	"unicode/utf8"
)

const (
	minNameLength  = 2
	maxNameLength  = 100
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateRow checks a parsed row and returns every violation found.
// An empty result means the row is valid.
func ValidateRow(row ParsedRow, rowNumber int) []ParseError {
	var errs []ParseError
	add := func(field, msg string) {
		errs = append(errs, ParseError{Row: rowNumber, Field: field, Message: msg, Kind: KindValidation})
	}

	if email := row.Get("email"); !ValidEmail(email) {
		add("email", fmt.Sprintf("Invalid email format: %s", email))
	}

	if phone := row.Get("phone"); phone != "" && !ValidPhone(phone) {
		add("phone", fmt.Sprintf("Invalid phone number: %s (must contain %d-%d digits)", phone, minPhoneDigits, maxPhoneDigits))
	}

	if website := row.Get("website"); website != "" && !ValidWebsite(website) {
		add("website", fmt.Sprintf("Invalid website URL: %s", website))
	}

	if !lengthBetween(row.Get("name"), minNameLength, maxNameLength) {
		add("name", fmt.Sprintf("Business name must be between %d and %d characters", minNameLength, maxNameLength))
	}

	if !lengthBetween(row.Get("admin_name"), minNameLength, maxNameLength) {
		add("admin_name", fmt.Sprintf("Admin name must be between %d and %d characters", minNameLength, maxNameLength))
	}

	return errs
}

// ValidEmail reports whether s has a basic local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// ValidPhone reports whether s contains between 10 and 15 digits.
// All other characters are ignored.
func ValidPhone(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}

// ValidWebsite reports whether s parses as an absolute URL with a host.
func ValidWebsite(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

func lengthBetween(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}
