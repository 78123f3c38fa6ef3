package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"modengine/internal/config"
	"modengine/internal/models"
)

type mockSender struct {
	enabled bool
	err     error
	sent    []sentEmail
}

type sentEmail struct {
	to      []string
	subject string
}

func (m *mockSender) IsEnabled() bool { return m.enabled }

func (m *mockSender) SendEmail(to []string, subject, htmlBody, textBody string) error {
	m.sent = append(m.sent, sentEmail{to: to, subject: subject})
	return m.err
}

func TestNotifier_NotifyHighRisk(t *testing.T) {
	cfg := &config.Config{AlertRecipients: []string{"risk@example.com", "ops@example.com"}}
	sender := &mockSender{enabled: true}
	n := newNotifier(cfg, sender, zaptest.NewLogger(t))

	err := n.NotifyHighRisk(context.Background(), []models.CompanyRiskAssessment{assessment(80)})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, cfg.AlertRecipients, sender.sent[0].to)
	assert.Contains(t, sender.sent[0].subject, "1 company reached high risk")
}

func TestNotifier_SkipsWhenNothingToSend(t *testing.T) {
	tests := []struct {
		name        string
		enabled     bool
		recipients  []string
		assessments []models.CompanyRiskAssessment
	}{
		{"disabled", false, []string{"risk@example.com"}, []models.CompanyRiskAssessment{assessment(80)}},
		{"no recipients", true, nil, []models.CompanyRiskAssessment{assessment(80)}},
		{"no companies", true, []string{"risk@example.com"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &mockSender{enabled: tt.enabled}
			n := newNotifier(&config.Config{AlertRecipients: tt.recipients}, sender, nil)

			require.NoError(t, n.NotifyHighRisk(context.Background(), tt.assessments))
			assert.Empty(t, sender.sent)
		})
	}
}

func TestNotifier_PropagatesSendError(t *testing.T) {
	sender := &mockSender{enabled: true, err: errors.New("connection refused")}
	n := newNotifier(&config.Config{AlertRecipients: []string{"risk@example.com"}}, sender, nil)

	err := n.NotifyHighRisk(context.Background(), []models.CompanyRiskAssessment{assessment(80)})
	assert.ErrorContains(t, err, "connection refused")
}
