package moderation

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"modengine/internal/models"
	"modengine/internal/validation"
)

// Scan matches text against rules and returns a flag candidate, or nil when
// nothing matched. Inactive rules are skipped. Scan does no I/O.
//
// Matching is case-insensitive and word-bounded: "scam" matches "a scam!" but
// not "scampi". A keyword edge that is itself punctuation needs no boundary.
func Scan(rules []models.KeywordRule, text string, contentType models.ContentType, contentID, userID string) *models.FlagCandidate {
	haystack := strings.ToLower(text)
	if haystack == "" {
		return nil
	}

	var (
		matched    []string
		categories []models.Category
		severity   int
	)
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		keyword := strings.ToLower(rule.Keyword)
		if keyword == "" || slices.Contains(matched, keyword) {
			continue
		}
		if !containsWord(haystack, keyword) {
			continue
		}
		matched = append(matched, keyword)
		if !slices.Contains(categories, rule.Category) {
			categories = append(categories, rule.Category)
		}
		severity = max(severity, validation.ClampSeverity(rule.Severity))
	}

	if len(matched) == 0 {
		return nil
	}

	slices.Sort(categories)
	return &models.FlagCandidate{
		ContentType:     contentType,
		ContentID:       contentID,
		UserID:          userID,
		MatchedKeywords: matched,
		Categories:      categories,
		Severity:        severity,
		FlagReason:      flagReason(len(matched), categories),
	}
}

// containsWord reports whether keyword occurs in text at word boundaries.
// Both arguments must already be lowercased.
func containsWord(text, keyword string) bool {
	first, _ := utf8.DecodeRuneInString(keyword)
	last, _ := utf8.DecodeLastRuneInString(keyword)
	needLeft := validation.IsWordRune(first)
	needRight := validation.IsWordRune(last)

	for offset := 0; offset <= len(text)-len(keyword); {
		i := strings.Index(text[offset:], keyword)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(keyword)

		leftOK := true
		if needLeft && start > 0 {
			r, _ := utf8.DecodeLastRuneInString(text[:start])
			leftOK = !validation.IsWordRune(r)
		}
		rightOK := true
		if needRight && end < len(text) {
			r, _ := utf8.DecodeRuneInString(text[end:])
			rightOK = !validation.IsWordRune(r)
		}
		if leftOK && rightOK {
			return true
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func flagReason(n int, categories []models.Category) string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	noun := "category"
	if len(names) > 1 {
		noun = "categories"
	}
	return fmt.Sprintf("Matched %d keyword(s) in %s %s", n, noun, strings.Join(names, ", "))
}
