package email

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"modengine/internal/config"
	"modengine/internal/models"
)

// Sender delivers a rendered email.
type Sender interface {
	IsEnabled() bool
	SendEmail(to []string, subject, htmlBody, textBody string) error
}

// Notifier sends high risk alerts to the configured recipients.
type Notifier struct {
	sender     Sender
	templates  *Templates
	recipients []string
	logger     *zap.Logger
}

// NewNotifier creates a notifier backed by SMTP.
func NewNotifier(cfg *config.Config, logger *zap.Logger) *Notifier {
	return newNotifier(cfg, NewService(cfg, logger), logger)
}

func newNotifier(cfg *config.Config, sender Sender, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		sender:     sender,
		templates:  NewTemplates(cfg),
		recipients: cfg.AlertRecipients,
		logger:     logger,
	}
}

// NotifyHighRisk emails one alert listing every newly high risk company.
func (n *Notifier) NotifyHighRisk(ctx context.Context, assessments []models.CompanyRiskAssessment) error {
	if !n.sender.IsEnabled() || len(n.recipients) == 0 || len(assessments) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, htmlBody, textBody := n.templates.HighRiskAlert(assessments)
	if err := n.sender.SendEmail(n.recipients, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send high risk alert: %w", err)
	}

	n.logger.Info("high risk alert sent",
		zap.Int("companies", len(assessments)),
		zap.Strings("recipients", n.recipients),
	)
	return nil
}
