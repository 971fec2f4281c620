package users

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vantage-hq/vantage/internal/platform/httpx"
)

// PasswordPolicy validates candidate credentials. Production deployments
// demand length, mixed case, digits, symbols, and rejection of known-breach
// values; elsewhere only a minimum length applies.
type PasswordPolicy struct {
	Production bool
}

// Validate returns a field-scoped validation error when the candidate is too
// weak for the active policy.
func (p PasswordPolicy) Validate(password string) error {
	// Lengths count characters, not bytes, so multibyte passwords are not
	// credited for their encoding width.
	if !p.Production {
		if utf8.RuneCountInString(password) < 8 {
			return httpx.NewValidationError("password", "The password must be at least 8 characters.")
		}
		return nil
	}

	verr := &httpx.ValidationError{}
	if utf8.RuneCountInString(password) < 12 {
		verr.Add("password", "The password must be at least 12 characters.")
	}
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper || !hasLower {
		verr.Add("password", "The password must contain both uppercase and lowercase letters.")
	}
	if !hasDigit {
		verr.Add("password", "The password must contain at least one number.")
	}
	if !hasSymbol {
		verr.Add("password", "The password must contain at least one symbol.")
	}
	if _, breached := breachedPasswords[strings.ToLower(password)]; breached {
		verr.Add("password", "The password has appeared in a data leak. Please choose a different password.")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// breachedPasswords is a compact embedded corpus of the most common leaked
// passwords, checked offline in place of a remote breach-range query.
var breachedPasswords = func() map[string]struct{} {
	list := []string{
		"123456", "123456789", "12345678", "1234567890", "password",
		"password1", "password123", "passw0rd", "p@ssw0rd", "qwerty",
		"qwerty123", "qwertyuiop", "111111", "123123", "abc123",
		"1q2w3e4r", "iloveyou", "admin", "admin123", "welcome",
		"welcome1", "letmein", "monkey", "dragon", "sunshine",
		"princess", "football", "baseball", "superman", "batman",
		"trustno1", "master", "shadow", "michael", "jennifer",
		"charlie", "donald", "freedom", "whatever", "zaq12wsx",
		"password!", "password1!", "changeme", "secret", "default",
	}
	set := make(map[string]struct{}, len(list))
	for _, p := range list {
		set[p] = struct{}{}
	}
	return set
}()
