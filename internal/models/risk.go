package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel is the coarse bucket derived from a risk score.
type RiskLevel string

// Risk level constants
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether l is a known level.
func (l RiskLevel) Valid() bool {
	return l == RiskLow || l == RiskMedium || l == RiskHigh
}

// CompanyRiskAssessment is a recomputable view of a company's risk.
type CompanyRiskAssessment struct {
	CompanyID      uuid.UUID `json:"company_id"`
	RiskScore      int       `json:"risk_score"`
	RiskLevel      RiskLevel `json:"risk_level"`
	RiskIndicators []string  `json:"risk_indicators"`
	PolicyVersion  string    `json:"policy_version"`
	ComputedAt     time.Time `json:"computed_at"`
}

// RiskSignals are the indicator inputs gathered for one company.
type RiskSignals struct {
	CompanyID             uuid.UUID `json:"company_id"`
	AccountAgeDays        int       `json:"account_age_days"`
	PendingVerification   bool      `json:"pending_verification"`
	ProfileCompleteness   float64   `json:"profile_completeness"` // 0..1
	FlagCountLast90Days   int       `json:"flag_count_last_90_days"`
	AvgFlagSeverity       float64   `json:"avg_flag_severity"`
	DisputedPaymentsCount int       `json:"disputed_payments_count"`
	DataMismatch          bool      `json:"data_mismatch"`
}

// FlagLookbackWindow is how far back flags count towards a company's risk.
const FlagLookbackWindow = 90 * 24 * time.Hour
