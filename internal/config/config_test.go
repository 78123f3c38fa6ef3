package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env
	for _, key := range []string{"ENV", "STORAGE_DRIVER", "RULE_CACHE_TTL", "RISK_BATCH_CONCURRENCY", "ALERT_RECIPIENTS", "RISK_SNAPSHOTS_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, 5*time.Minute, cfg.RuleCacheTTL)
	assert.Equal(t, 8, cfg.RiskBatchConcurrency)
	assert.False(t, cfg.RiskSnapshotsEnabled)
	assert.Nil(t, cfg.AlertRecipients)
	assert.False(t, cfg.IsEmailEnabled())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "production")
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("RULE_CACHE_TTL", "30s")
	t.Setenv("RISK_BATCH_CONCURRENCY", "3")
	t.Setenv("RISK_SNAPSHOTS_ENABLED", "1")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "alerts@example.com")
	t.Setenv("ALERT_RECIPIENTS", " risk@example.com, ,ops@example.com ")

	cfg := Load()

	assert.False(t, cfg.IsDev())
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 30*time.Second, cfg.RuleCacheTTL)
	assert.Equal(t, 3, cfg.RiskBatchConcurrency)
	assert.True(t, cfg.RiskSnapshotsEnabled)
	assert.Equal(t, []string{"risk@example.com", "ops@example.com"}, cfg.AlertRecipients)
	assert.True(t, cfg.IsEmailEnabled())
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REDIS_DB", "two")
	t.Setenv("RULE_CACHE_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 5*time.Minute, cfg.RuleCacheTTL)
}

func TestLoadYAMLConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		cfg, err := LoadYAMLConfig(filepath.Join(dir, "absent.yaml"))
		require.NoError(t, err)
		assert.Nil(t, cfg)
		assert.Nil(t, cfg.GetRiskPolicy())
		assert.Nil(t, cfg.GetKeywords())
	})

	t.Run("policy and keywords", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		data := `
risk_policy:
  version: "2026.10-eu"
  new_account_points: 25
  flag_severity_multiplier: 1.5
keywords:
  - keyword: scam
    category: spam
    severity: 4
  - keyword: lawsuit
    category: legal
    severity: 2
    description: legal threats
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		cfg, err := LoadYAMLConfig(path)
		require.NoError(t, err)

		policy := cfg.GetRiskPolicy()
		require.NotNil(t, policy)
		assert.Equal(t, "2026.10-eu", policy.Version)
		require.NotNil(t, policy.NewAccountPoints)
		assert.Equal(t, 25, *policy.NewAccountPoints)
		require.NotNil(t, policy.FlagSeverityMultiplier)
		assert.InDelta(t, 1.5, *policy.FlagSeverityMultiplier, 1e-9)
		assert.Nil(t, policy.DataMismatchPoints)

		keywords := cfg.GetKeywords()
		require.Len(t, keywords, 2)
		assert.Equal(t, "scam", keywords[0].Keyword)
		assert.Equal(t, "legal threats", keywords[1].Description)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("keywords: [unterminated"), 0o600))

		_, err := LoadYAMLConfig(path)
		assert.Error(t, err)
	})
}
