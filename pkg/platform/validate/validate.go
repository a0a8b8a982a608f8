// Package validate holds the field format checks shared across entities.
package validate

import "regexp"

var (
	phonePattern     = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	intlPhonePattern = regexp.MustCompile(`^\+[0-9]{10,14}$`)
	emailPattern     = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)
)

// Phone reports whether s is a plausible subscriber number: an optional
// leading + followed by 10 to 15 digits.
func Phone(s string) bool { return phonePattern.MatchString(s) }

// IntlPhone is the stricter variant requiring a country code prefix.
func IntlPhone(s string) bool { return intlPhonePattern.MatchString(s) }

// Email reports whether s looks like a deliverable address.
func Email(s string) bool { return emailPattern.MatchString(s) }
