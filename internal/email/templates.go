package email

import (
	"fmt"
	"html"
	"strings"
	"time"

	"modengine/internal/config"
	"modengine/internal/models"
)

// Templates provides email template generation.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

func (t *Templates) siteTitle() string {
	if t.cfg.SMTPFromName != "" {
		return t.cfg.SMTPFromName
	}
	return "Moderation Engine"
}

// baseHTML wraps content in a consistent HTML email template.
func (t *Templates) baseHTML(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 640px; margin: 0 auto; padding: 20px; }
        .header { background: #b91c1c; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 22px; }
        .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
        .footer { background: #f3f4f6; padding: 15px; text-align: center; font-size: 12px; color: #6b7280; border-radius: 0 0 8px 8px; }
        .info-box { background: white; border: 1px solid #e5e7eb; border-radius: 6px; padding: 15px; margin: 15px 0; }
        .label { font-weight: 600; color: #374151; }
        .score { color: #dc2626; font-weight: 600; }
        code { background: #e5e7eb; padding: 2px 6px; border-radius: 4px; font-family: monospace; }
    </style>
</head>
<body>
    <div class="header">
        <h1>%s</h1>
    </div>
    <div class="content">
        %s
    </div>
    <div class="footer">
        <p>This alert was sent by %s</p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(t.siteTitle()), content, html.EscapeString(t.siteTitle()))
}

// HighRiskAlert generates the alert for companies that newly became high risk.
func (t *Templates) HighRiskAlert(assessments []models.CompanyRiskAssessment) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] %d compan%s reached high risk", t.siteTitle(), len(assessments), plural(len(assessments), "y", "ies"))

	var content, text strings.Builder
	content.WriteString("\n        <p>The following companies crossed the high risk threshold since the last check.</p>\n")
	text.WriteString("Companies that reached high risk\n")

	for _, a := range assessments {
		var reasons strings.Builder
		for _, r := range a.RiskIndicators {
			fmt.Fprintf(&reasons, "<li>%s</li>", html.EscapeString(r))
		}
		fmt.Fprintf(&content, `
        <div class="info-box">
            <p><span class="label">Company:</span> <code>%s</code></p>
            <p><span class="label">Score:</span> <span class="score">%d</span> (policy %s)</p>
            <ul>%s</ul>
        </div>
`,
			a.CompanyID,
			a.RiskScore,
			html.EscapeString(a.PolicyVersion),
			reasons.String(),
		)

		fmt.Fprintf(&text, "\nCompany: %s\nScore: %d (policy %s)\n", a.CompanyID, a.RiskScore, a.PolicyVersion)
		for _, r := range a.RiskIndicators {
			fmt.Fprintf(&text, "  - %s\n", r)
		}
	}

	var computedAt time.Time
	if len(assessments) > 0 {
		computedAt = assessments[0].ComputedAt
	}
	fmt.Fprintf(&text, "\nComputed at: %s\n\n--\n%s", computedAt.UTC().Format(time.RFC3339), t.siteTitle())

	return subject, t.baseHTML(subject, content.String()), text.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
