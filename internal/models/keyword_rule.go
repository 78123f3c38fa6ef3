package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups keyword rules for reporting and flag reasons.
type Category string

// Category constants
const (
	CategoryProfanity  Category = "profanity"
	CategorySpam       Category = "spam"
	CategoryLegal      Category = "legal"
	CategoryHarassment Category = "harassment"
	CategoryCustom     Category = "custom"
)

// Categories lists every accepted category.
var Categories = []Category{
	CategoryProfanity,
	CategorySpam,
	CategoryLegal,
	CategoryHarassment,
	CategoryCustom,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Severity bounds for keyword rules.
const (
	MinSeverity = 1
	MaxSeverity = 5
)

// KeywordRule is a banned term maintained by administrators.
type KeywordRule struct {
	ID          uuid.UUID `json:"id"`
	Keyword     string    `json:"keyword"` // normalized lowercase
	Category    Category  `json:"category"`
	Severity    int       `json:"severity"` // 1-5
	IsActive    bool      `json:"is_active"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewKeywordRule is the input for creating a rule.
type NewKeywordRule struct {
	Keyword     string   `json:"keyword"`
	Category    Category `json:"category"`
	Severity    int      `json:"severity"`
	Description *string  `json:"description"`
}

// KeywordRulePatch carries the fields an administrator may edit. Nil fields are left unchanged.
type KeywordRulePatch struct {
	Keyword     *string   `json:"keyword"`
	Category    *Category `json:"category"`
	Severity    *int      `json:"severity"`
	Description *string   `json:"description"`
}

// IsEmpty reports whether the patch changes nothing.
func (p KeywordRulePatch) IsEmpty() bool {
	return p.Keyword == nil && p.Category == nil && p.Severity == nil && p.Description == nil
}
