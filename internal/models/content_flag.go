package models

import (
	"time"

	"github.com/google/uuid"
)

// FlagStatus is the review state of a content flag.
type FlagStatus string

// Flag status constants
const (
	FlagPending     FlagStatus = "pending"
	FlagReviewed    FlagStatus = "reviewed"
	FlagDismissed   FlagStatus = "dismissed"
	FlagActionTaken FlagStatus = "action_taken"
)

// FlagStatuses lists every status in workflow order.
var FlagStatuses = []FlagStatus{FlagPending, FlagReviewed, FlagDismissed, FlagActionTaken}

// Valid reports whether s is a known status.
func (s FlagStatus) Valid() bool {
	switch s {
	case FlagPending, FlagReviewed, FlagDismissed, FlagActionTaken:
		return true
	}
	return false
}

// IsTerminal reports whether no transition out of s is permitted.
func (s FlagStatus) IsTerminal() bool {
	return s == FlagReviewed || s == FlagDismissed || s == FlagActionTaken
}

// ContentFlag records that a piece of content matched moderation rules and needs review.
type ContentFlag struct {
	ID              uuid.UUID   `json:"id"`
	ContentType     ContentType `json:"content_type"`
	ContentID       string      `json:"content_id"`
	UserID          string      `json:"user_id"`
	FlagReason      string      `json:"flag_reason"`
	MatchedKeywords []string    `json:"matched_keywords"`
	Severity        int         `json:"severity"`
	Status          FlagStatus  `json:"status"`
	ReviewedBy      *string     `json:"reviewed_by"`
	ReviewedAt      *time.Time  `json:"reviewed_at"`
	AdminNotes      *string     `json:"admin_notes"`
	ActionTaken     *string     `json:"action_taken"`
	CreatedAt       time.Time   `json:"created_at"`
}

// IsPending returns true if the flag still awaits review.
func (f *ContentFlag) IsPending() bool {
	return f.Status == FlagPending
}

// FlagCandidate is the scanner's output: a flag that has not been stored yet.
type FlagCandidate struct {
	ContentType     ContentType `json:"content_type"`
	ContentID       string      `json:"content_id"`
	UserID          string      `json:"user_id"`
	MatchedKeywords []string    `json:"matched_keywords"`
	Categories      []Category  `json:"categories"`
	Severity        int         `json:"severity"`
	FlagReason      string      `json:"flag_reason"`
}

// FlagResolution is applied to a pending flag in a single transition.
type FlagResolution struct {
	Status      FlagStatus
	ReviewedBy  string
	ReviewedAt  time.Time
	AdminNotes  *string // nil keeps existing notes
	ActionTaken *string
}

// FlagFilter narrows flag listings. Zero values mean "any".
type FlagFilter struct {
	Status      FlagStatus
	ContentType ContentType
	Search      string
	Limit       int
	Offset      int
}

// Listing bounds for flag queries.
const (
	DefaultFlagLimit = 50
	MaxFlagLimit     = 200
)

// Normalize applies default and maximum page sizes.
func (f FlagFilter) Normalize() FlagFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultFlagLimit
	}
	if f.Limit > MaxFlagLimit {
		f.Limit = MaxFlagLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
