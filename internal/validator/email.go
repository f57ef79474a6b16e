package validator

import "regexp"

// emailPattern is intentionally permissive: local@domain.tld with an alphabetic TLD of 2+ chars.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._+\-']+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// IsValidEmail reports whether input looks like local@domain.tld. No DNS lookups are made.
func IsValidEmail(input string) bool {
	return emailPattern.MatchString(input)
}
