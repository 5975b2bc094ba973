package entities

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a time-ordered document identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

var (
	codeRE  = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{0,31}$`)
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// NormalizeCode upper-cases and trims a business code (company code, SKU, branch code...).
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validCode(code string) bool {
	return codeRE.MatchString(code)
}

func validEmail(email string) bool {
	return emailRE.MatchString(email)
}
