// Package validation provides custom validation rules and input sanitizers for the application.
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	validation "github.com/jellydator/validation"

	apperrors "github.com/betshield/betshield-api/internal/errors"
)

var (
	// Shape check only, deliverability is not verified.
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// tagRegex matches markup tags, including an unterminated trailing one
	tagRegex = regexp.MustCompile(`<[^>]*>?`)
)

// WrapValidationError wraps err as ErrInvalidInput, keeping its message for the response body.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// PasswordStrength is the password policy applied on registration and account creation.
// Length is counted in runes.
type PasswordStrength struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireNumber  bool
	RequireSpecial bool
}

type charClass struct {
	enabled bool
	match   func(rune) bool
	code    string
	message string
}

// Validate implements validation.Rule.
func (p PasswordStrength) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_password_strength", "password must be a string")
	}

	if utf8.RuneCountInString(s) < p.MinLength {
		return validation.NewError(
			"validation_password_min_length",
			"password must be at least "+strconv.Itoa(p.MinLength)+" characters",
		)
	}

	for _, class := range p.classes() {
		if class.enabled && strings.IndexFunc(s, class.match) < 0 {
			return validation.NewError(class.code, "password must contain at least one "+class.message)
		}
	}
	return nil
}

func (p PasswordStrength) classes() []charClass {
	return []charClass{
		{p.RequireUpper, unicode.IsUpper, "validation_password_uppercase", "uppercase letter"},
		{p.RequireLower, unicode.IsLower, "validation_password_lowercase", "lowercase letter"},
		{p.RequireNumber, unicode.IsNumber, "validation_password_number", "number"},
		{p.RequireSpecial, isSpecial, "validation_password_special", "special character"},
	}
}

func isSpecial(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// Email requires a local part, an @ and a dotted domain.
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// NotBlank rejects strings that are empty after trimming.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Emails are compared in this form everywhere, including abuse guard keys.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeName trims the value and removes any markup tags from it.
func SanitizeName(name string) string {
	return strings.TrimSpace(tagRegex.ReplaceAllString(strings.TrimSpace(name), ""))
}
