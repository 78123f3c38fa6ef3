package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"modengine/internal/models"
)

// MaxKeywordLength bounds keyword rules in runes.
const MaxKeywordLength = 100

// MaxNotesLength bounds admin notes and action descriptions in runes.
const MaxNotesLength = 2000

// NormalizeKeyword lowercases a keyword and collapses runs of whitespace so
// lookups and uniqueness checks are case-insensitive.
func NormalizeKeyword(keyword string) string {
	return strings.Join(strings.Fields(strings.ToLower(keyword)), " ")
}

// ValidateKeyword checks a normalized keyword. It must be non-empty, not too long
// and contain at least one letter or digit, otherwise word-boundary matching is meaningless.
func ValidateKeyword(keyword string) (bool, string) {
	if keyword == "" {
		return false, "keyword is required"
	}
	if utf8.RuneCountInString(keyword) > MaxKeywordLength {
		return false, "keyword must be at most 100 characters"
	}
	if strings.IndexFunc(keyword, isWordRune) < 0 {
		return false, "keyword must contain a letter or digit"
	}
	return true, ""
}

// ValidateSeverity checks that severity is within the rule bounds.
func ValidateSeverity(severity int) (bool, string) {
	if severity < models.MinSeverity || severity > models.MaxSeverity {
		return false, "severity must be between 1 and 5"
	}
	return true, ""
}

// ClampSeverity forces severity into the rule bounds. Used for rules that do not
// come through the admin API (seed files) and when deriving candidate severity.
func ClampSeverity(severity int) int {
	if severity < models.MinSeverity {
		return models.MinSeverity
	}
	if severity > models.MaxSeverity {
		return models.MaxSeverity
	}
	return severity
}

// ValidateCategory checks that category is a known category.
func ValidateCategory(category models.Category) (bool, string) {
	if !category.Valid() {
		return false, "category must be one of profanity, spam, legal, harassment, custom"
	}
	return true, ""
}

// ValidateNotes checks the length of free-text review fields.
func ValidateNotes(notes *string) (bool, string) {
	if notes != nil && utf8.RuneCountInString(*notes) > MaxNotesLength {
		return false, "must be at most 2000 characters"
	}
	return true, ""
}

// IsWordRune reports whether r is part of a word for boundary matching.
func IsWordRune(r rune) bool {
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
