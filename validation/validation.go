package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Violations maps a JSON field name to a machine-readable reason.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// NonEmptyList requires at least one non-blank entry.
func NonEmptyList(field string, values []string, v Violations) {
	for _, s := range values {
		if strings.TrimSpace(s) != "" {
			return
		}
	}
	v[field] = "required"
}

func MinLen(field, value string, n int, v Violations) {
	if utf8.RuneCountInString(value) < n {
		v[field] = "too_short"
	}
}

func MaxLen(field, value string, n int, v Violations) {
	if utf8.RuneCountInString(value) > n {
		v[field] = "too_long"
	}
}

// Email checks a single address. Empty values are left to Required.
func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v[field] = "invalid_email"
	}
}

func PositiveDecimal(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v[field] = "must_be_positive"
	}
}

func NonNegativeDecimal(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v[field] = "must_not_be_negative"
	}
}

// OneOf checks value against an allow-list. Empty values pass.
func OneOf[T ~string](field string, value T, allowed []T, v Violations) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if a == value {
			return
		}
	}
	v[field] = "invalid_value"
}

// Enum is OneOf for a value that was explicitly sent and so must be set.
func Enum[T ~string](field string, value T, allowed []T, v Violations) {
	if strings.TrimSpace(string(value)) == "" {
		v[field] = "required"
		return
	}
	OneOf(field, value, allowed, v)
}

// MaxBytes bounds the encoded length, for inputs such as bcrypt passwords
// that are limited in bytes rather than characters.
func MaxBytes(field, value string, n int, v Violations) {
	if len(value) > n {
		v[field] = "too_long"
	}
}

// Cents rejects amounts with more than two decimal places.
func Cents(field string, val decimal.Decimal, v Violations) {
	if !val.Equal(val.Round(2)) {
		if _, set := v[field]; !set {
			v[field] = "too_many_decimals"
		}
	}
}
