package shared

import (
	"strings"

	"golang.org/x/text/cases"
)

var emailFolder = cases.Fold()

// NormalizeEmail produces the canonical form an email address is stored and
// compared under, so uniqueness and lookups survive casing differences.
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}
