package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the config.yaml file.
// Structured settings that are awkward to express as env vars.
type YAMLConfig struct {
	RiskPolicy *RiskPolicyConfig `yaml:"risk_policy"`
	Keywords   []KeywordConfig   `yaml:"keywords"`
}

// RiskPolicyConfig overrides risk indicator weights. Nil fields keep the
// built-in value.
type RiskPolicyConfig struct {
	Version                    string   `yaml:"version"`
	NewAccountDays             *int     `yaml:"new_account_days"`
	NewAccountPoints           *int     `yaml:"new_account_points"`
	PendingVerificationPoints  *int     `yaml:"pending_verification_points"`
	IncompleteProfileThreshold *float64 `yaml:"incomplete_profile_threshold"` // 0..1
	IncompleteProfilePoints    *int     `yaml:"incomplete_profile_points"`
	FlagSeverityMultiplier     *float64 `yaml:"flag_severity_multiplier"`
	RecentFlagsCap             *int     `yaml:"recent_flags_cap"`
	DisputedPaymentPoints      *int     `yaml:"disputed_payment_points"`
	DisputedPaymentsCap        *int     `yaml:"disputed_payments_cap"`
	DataMismatchPoints         *int     `yaml:"data_mismatch_points"`
}

// KeywordConfig is a keyword rule seeded at startup.
type KeywordConfig struct {
	Keyword     string `yaml:"keyword"`
	Category    string `yaml:"category"`
	Severity    int    `yaml:"severity"`
	Description string `yaml:"description,omitempty"`
}

// LoadYAMLConfig loads the YAML configuration file at path.
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// GetRiskPolicy returns the policy overrides, or nil.
func (c *YAMLConfig) GetRiskPolicy() *RiskPolicyConfig {
	if c == nil {
		return nil
	}
	return c.RiskPolicy
}

// GetKeywords returns the keyword seeds.
func (c *YAMLConfig) GetKeywords() []KeywordConfig {
	if c == nil {
		return nil
	}
	return c.Keywords
}
