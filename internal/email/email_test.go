package email

import (
	"strings"
	"testing"

	"modengine/internal/config"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.Config
		wantEnabled bool
	}{
		{
			name: "enabled when SMTP and recipients configured",
			cfg: &config.Config{
				SMTPHost:        "smtp.example.com",
				SMTPPort:        587,
				SMTPFrom:        "alerts@example.com",
				AlertRecipients: []string{"risk@example.com"},
			},
			wantEnabled: true,
		},
		{
			name: "disabled without recipients",
			cfg: &config.Config{
				SMTPHost: "smtp.example.com",
				SMTPPort: 587,
				SMTPFrom: "alerts@example.com",
			},
			wantEnabled: false,
		},
		{
			name: "disabled when SMTPHost is empty",
			cfg: &config.Config{
				SMTPFrom:        "alerts@example.com",
				AlertRecipients: []string{"risk@example.com"},
			},
			wantEnabled: false,
		},
		{
			name:        "disabled with empty config",
			cfg:         &config.Config{},
			wantEnabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.cfg, nil)
			if svc.IsEnabled() != tt.wantEnabled {
				t.Errorf("IsEnabled() = %v, want %v", svc.IsEnabled(), tt.wantEnabled)
			}
		})
	}
}

func TestService_SendEmail_Disabled(t *testing.T) {
	svc := NewService(&config.Config{}, nil)

	if err := svc.SendEmail([]string{"risk@example.com"}, "Test", "<p>HTML</p>", "Text"); err != nil {
		t.Errorf("SendEmail() error = %v, want nil when disabled", err)
	}
}

func TestService_BuildMessage(t *testing.T) {
	svc := NewService(&config.Config{
		SMTPFrom:     "alerts@example.com",
		SMTPFromName: "Risk Desk",
	}, nil)

	msg := svc.buildMessage([]string{"a@example.com", "b@example.com"}, "Subject line", "<p>html</p>", "plain")

	checks := []string{
		"From: Risk Desk <alerts@example.com>\r\n",
		"To: a@example.com, b@example.com\r\n",
		"Subject: Subject line\r\n",
		"MIME-Version: 1.0\r\n",
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\nplain\r\n",
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n<p>html</p>\r\n",
		"--" + boundary + "--\r\n",
	}
	for _, check := range checks {
		if !strings.Contains(msg, check) {
			t.Errorf("buildMessage() missing %q", check)
		}
	}
}

func TestService_BuildMessage_TextOnly(t *testing.T) {
	svc := NewService(&config.Config{SMTPFrom: "alerts@example.com"}, nil)

	msg := svc.buildMessage([]string{"a@example.com"}, "S", "", "plain")

	if strings.Contains(msg, "text/html") {
		t.Error("buildMessage() included an HTML part for an empty HTML body")
	}
	if !strings.Contains(msg, "From: alerts@example.com\r\n") {
		t.Error("buildMessage() should use the bare address when no name is set")
	}
}
