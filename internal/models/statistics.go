package models

import "time"

// FlagStatusCounts holds the number of flags in each review state.
type FlagStatusCounts struct {
	Pending     int `json:"pending"`
	Reviewed    int `json:"reviewed"`
	Dismissed   int `json:"dismissed"`
	ActionTaken int `json:"action_taken"`
	Total       int `json:"total"`
}

// Add counts n flags in status s and keeps Total in step.
func (c *FlagStatusCounts) Add(s FlagStatus, n int) {
	switch s {
	case FlagPending:
		c.Pending += n
	case FlagReviewed:
		c.Reviewed += n
	case FlagDismissed:
		c.Dismissed += n
	case FlagActionTaken:
		c.ActionTaken += n
	default:
		return
	}
	c.Total += n
}

// RiskLevelCounts holds the number of assessed companies per level.
type RiskLevelCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Total  int `json:"total"`
}

// Add counts one company at level l.
func (c *RiskLevelCounts) Add(l RiskLevel) {
	switch l {
	case RiskHigh:
		c.High++
	case RiskMedium:
		c.Medium++
	case RiskLow:
		c.Low++
	default:
		return
	}
	c.Total++
}

// FlagCount is one row of a grouped flag count.
type FlagCount struct {
	Status      FlagStatus
	ContentType ContentType
	Count       int
}

// ModerationStatistics summarizes the ledger and the latest risk assessments.
type ModerationStatistics struct {
	Flags         FlagStatusCounts    `json:"flags"`
	ByContentType map[ContentType]int `json:"by_content_type"`
	Risk          RiskLevelCounts     `json:"risk"`
	ComputedAt    time.Time           `json:"computed_at"`
}
