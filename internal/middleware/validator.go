package middleware

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ValidateEmail checks the login email
func ValidateEmail(email string) error {
	return validation.Validate(email, validation.Required, validation.Length(3, 254), is.EmailFormat)
}

// ValidateRedirectURL validates the magic link redirect target
func ValidateRedirectURL(rawURL string) error {
	if rawURL == "" {
		return nil // Optional field
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL host is required")
	}
	return nil
}

// SanitizeString drops NUL and other control runes (tab and newline survive)
// and trims the result. Project fields go through it before storage.
func SanitizeString(input string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input))
}

// QueryInt parses an integer query parameter; blank or malformed values yield 0
// so the caller's default applies.
func QueryInt(values url.Values, key string) int {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
