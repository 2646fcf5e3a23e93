// Package validate holds the per-field validators used by the account
// pipeline. Each validator either returns the normalized value or a
// FieldError describing the violation.
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

const (
	minUsernameLen = 2
	maxUsernameLen = 25
	minPasswordLen = 8
	maxPasswordLen = 64
	minDiscordLen  = 2
	maxDiscordLen  = 37
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

// FieldError reports a validation failure for a single named field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func fieldError(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// Username trims and validates a username. Usernames are 2-25 characters,
// start with a letter, and contain only letters, digits, and underscores.
func Username(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fieldError("username", "must not be empty")
	}
	if len(value) < minUsernameLen || len(value) > maxUsernameLen {
		return "", fieldError("username", fmt.Sprintf("must be %d-%d characters", minUsernameLen, maxUsernameLen))
	}
	runes := []rune(value)
	if !unicode.IsLetter(runes[0]) {
		return "", fieldError("username", "must start with a letter")
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return "", fieldError("username", "may contain only letters, digits, and underscores")
		}
	}
	return value, nil
}

// Password validates a password without altering it: 8-64 characters,
// no whitespace, at least one letter and one digit. The value is returned
// unchanged so that the caller's round-trip checks stay meaningful.
func Password(value string) (string, error) {
	if value == "" {
		return "", fieldError("password", "must not be empty")
	}
	if len(value) < minPasswordLen || len(value) > maxPasswordLen {
		return "", fieldError("password", fmt.Sprintf("must be %d-%d characters", minPasswordLen, maxPasswordLen))
	}
	var hasLetter, hasDigit bool
	for _, r := range value {
		switch {
		case unicode.IsSpace(r):
			return "", fieldError("password", "must not contain whitespace")
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return "", fieldError("password", "must contain at least one letter and one digit")
	}
	return value, nil
}

// CountryCode trims and validates an ISO 3166-1 alpha-2 country code,
// normalizing it to upper case.
func CountryCode(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fieldError("countryCode", "must not be empty")
	}
	if len(value) != 2 {
		return "", fieldError("countryCode", "must be a two-letter country code")
	}
	for _, r := range value {
		if r < 'A' || (r > 'Z' && r < 'a') || r > 'z' {
			return "", fieldError("countryCode", "must contain only letters")
		}
	}
	return strings.ToUpper(value), nil
}

// Discord trims and validates a Discord handle. Both legacy Name#1234
// tags and modern lowercase handles are accepted.
func Discord(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fieldError("discord", "must not be empty")
	}
	if len(value) < minDiscordLen || len(value) > maxDiscordLen {
		return "", fieldError("discord", fmt.Sprintf("must be %d-%d characters", minDiscordLen, maxDiscordLen))
	}
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '.', '_', '#':
		default:
			return "", fieldError("discord", "contains invalid characters")
		}
	}
	return value, nil
}

// Phone validates a phone number and normalizes it to digits with an
// optional leading +. Spaces, dashes, dots, and parentheses are stripped.
func Phone(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fieldError("phone", "must not be empty")
	}
	var b strings.Builder
	for i, r := range value {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", fieldError("phone", "contains invalid characters")
		}
	}
	normalized := b.String()
	digits := strings.TrimPrefix(normalized, "+")
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return "", fieldError("phone", fmt.Sprintf("must contain %d-%d digits", minPhoneDigits, maxPhoneDigits))
	}
	return normalized, nil
}

// Email trims and validates an email address, normalizing it to lower case.
func Email(value string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", fieldError("email", "must not be empty")
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return "", fieldError("email", "is not a valid email address")
	}
	return value, nil
}

// ID trims and validates the shape of a document identifier (user or
// grow post). Identifiers are opaque printable tokens; backend-specific
// well-formedness (object id, uuid) is checked by the store that owns them.
func ID(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fieldError("id", "must not be empty")
	}
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			return "", fieldError("id", "contains invalid characters")
		}
	}
	return value, nil
}
