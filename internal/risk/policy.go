package risk

import (
	"modengine/internal/config"
	"modengine/internal/models"
)

// PolicyVersion identifies the built-in indicator weights. It is stamped on
// every assessment so stored snapshots can be compared like for like.
const PolicyVersion = "2026.10"

// Level thresholds. A score at or above HighRiskThreshold is high; at or above
// MediumRiskThreshold is medium; anything lower is low.
const (
	HighRiskThreshold   = 70
	MediumRiskThreshold = 40
)

// Score bounds.
const (
	MinScore = 0
	MaxScore = 100
)

// Default indicator weights.
const (
	NewAccountDays   = 30
	NewAccountPoints = 20

	PendingVerificationPoints = 15

	IncompleteProfileThreshold = 0.6
	IncompleteProfilePoints    = 10

	FlagSeverityMultiplier = 2
	RecentFlagsCap         = 40

	DisputedPaymentPoints = 10
	DisputedPaymentsCap   = 30

	DataMismatchPoints = 15
)

// Policy holds the indicator weights used by Compute.
type Policy struct {
	Version string

	NewAccountDays   int
	NewAccountPoints int

	PendingVerificationPoints int

	IncompleteProfileThreshold float64
	IncompleteProfilePoints    int

	FlagSeverityMultiplier float64
	RecentFlagsCap         int

	DisputedPaymentPoints int
	DisputedPaymentsCap   int

	DataMismatchPoints int
}

// DefaultPolicy returns the built-in weights.
func DefaultPolicy() Policy {
	return Policy{
		Version:                    PolicyVersion,
		NewAccountDays:             NewAccountDays,
		NewAccountPoints:           NewAccountPoints,
		PendingVerificationPoints:  PendingVerificationPoints,
		IncompleteProfileThreshold: IncompleteProfileThreshold,
		IncompleteProfilePoints:    IncompleteProfilePoints,
		FlagSeverityMultiplier:     FlagSeverityMultiplier,
		RecentFlagsCap:             RecentFlagsCap,
		DisputedPaymentPoints:      DisputedPaymentPoints,
		DisputedPaymentsCap:        DisputedPaymentsCap,
		DataMismatchPoints:         DataMismatchPoints,
	}
}

// Merge applies overrides from the YAML config. Overriding any weight without
// naming a version marks the policy as custom.
func (p Policy) Merge(o *config.RiskPolicyConfig) Policy {
	if o == nil {
		return p
	}

	changed := false
	setInt := func(dst *int, src *int) {
		if src != nil && *src >= 0 {
			*dst = *src
			changed = true
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil && *src >= 0 {
			*dst = *src
			changed = true
		}
	}

	setInt(&p.NewAccountDays, o.NewAccountDays)
	setInt(&p.NewAccountPoints, o.NewAccountPoints)
	setInt(&p.PendingVerificationPoints, o.PendingVerificationPoints)
	setFloat(&p.IncompleteProfileThreshold, o.IncompleteProfileThreshold)
	setInt(&p.IncompleteProfilePoints, o.IncompleteProfilePoints)
	setFloat(&p.FlagSeverityMultiplier, o.FlagSeverityMultiplier)
	setInt(&p.RecentFlagsCap, o.RecentFlagsCap)
	setInt(&p.DisputedPaymentPoints, o.DisputedPaymentPoints)
	setInt(&p.DisputedPaymentsCap, o.DisputedPaymentsCap)
	setInt(&p.DataMismatchPoints, o.DataMismatchPoints)

	switch {
	case o.Version != "":
		p.Version = o.Version
	case changed:
		p.Version = p.Version + "+custom"
	}
	return p
}

// LevelFor maps a score to its level. It is the only place levels are derived.
func LevelFor(score int) models.RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return models.RiskHigh
	case score >= MediumRiskThreshold:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
