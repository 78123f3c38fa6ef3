package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"modengine/internal/models"
)

// indicator contributes points when it fires. Indicators are evaluated in the
// order of the indicators slice, which is also the order of the reasons.
type indicator struct {
	name string
	eval func(s models.RiskSignals, p Policy) (points int, reason string, fired bool)
}

var indicators = []indicator{
	{"new_account", newAccount},
	{"pending_verification", pendingVerification},
	{"incomplete_profile", incompleteProfile},
	{"recent_flags", recentFlags},
	{"disputed_payments", disputedPayments},
	{"data_mismatch", dataMismatch},
}

// IndicatorNames lists indicator identifiers in evaluation order.
func IndicatorNames() []string {
	names := make([]string, len(indicators))
	for i, ind := range indicators {
		names[i] = ind.name
	}
	return names
}

// Compute scores a company from its signals. It is pure: identical inputs
// give identical output.
func Compute(companyID uuid.UUID, s models.RiskSignals, p Policy, now time.Time) models.CompanyRiskAssessment {
	total := 0
	reasons := []string{}
	for _, ind := range indicators {
		points, reason, fired := ind.eval(s, p)
		if !fired {
			continue
		}
		total += points
		reasons = append(reasons, reason)
	}

	score := min(max(total, MinScore), MaxScore)
	return models.CompanyRiskAssessment{
		CompanyID:      companyID,
		RiskScore:      score,
		RiskLevel:      LevelFor(score),
		RiskIndicators: reasons,
		PolicyVersion:  p.Version,
		ComputedAt:     now.UTC(),
	}
}

func newAccount(s models.RiskSignals, p Policy) (int, string, bool) {
	if s.AccountAgeDays >= p.NewAccountDays {
		return 0, "", false
	}
	return p.NewAccountPoints, fmt.Sprintf("New account (%d days old)", max(s.AccountAgeDays, 0)), true
}

func pendingVerification(s models.RiskSignals, p Policy) (int, string, bool) {
	if !s.PendingVerification {
		return 0, "", false
	}
	return p.PendingVerificationPoints, "Verification pending", true
}

func incompleteProfile(s models.RiskSignals, p Policy) (int, string, bool) {
	if s.ProfileCompleteness >= p.IncompleteProfileThreshold {
		return 0, "", false
	}
	pct := int(math.Round(s.ProfileCompleteness * 100))
	return p.IncompleteProfilePoints, fmt.Sprintf("Incomplete profile (%d%% complete)", pct), true
}

func recentFlags(s models.RiskSignals, p Policy) (int, string, bool) {
	if s.FlagCountLast90Days <= 0 {
		return 0, "", false
	}
	points := int(math.Round(float64(s.FlagCountLast90Days) * s.AvgFlagSeverity * p.FlagSeverityMultiplier))
	points = min(points, p.RecentFlagsCap)
	return points, fmt.Sprintf("%d content flag(s) in the last 90 days (avg severity %.1f)", s.FlagCountLast90Days, s.AvgFlagSeverity), true
}

func disputedPayments(s models.RiskSignals, p Policy) (int, string, bool) {
	if s.DisputedPaymentsCount <= 0 {
		return 0, "", false
	}
	points := min(s.DisputedPaymentsCount*p.DisputedPaymentPoints, p.DisputedPaymentsCap)
	return points, fmt.Sprintf("%d disputed payment(s)", s.DisputedPaymentsCount), true
}

func dataMismatch(s models.RiskSignals, p Policy) (int, string, bool) {
	if !s.DataMismatch {
		return 0, "", false
	}
	return p.DataMismatchPoints, "Mismatched company data", true
}
