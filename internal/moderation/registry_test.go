package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"modengine/internal/apperr"
	"modengine/internal/models"
	"modengine/internal/store/memory"
)

// fakeCache records calls and serves whatever was last stored.
type fakeCache struct {
	rules       []models.KeywordRule
	ok          bool
	err         error
	gets        int
	invalidated int
}

func (c *fakeCache) GetActive(ctx context.Context) ([]models.KeywordRule, bool, error) {
	c.gets++
	return c.rules, c.ok, c.err
}

func (c *fakeCache) SetActive(ctx context.Context, rules []models.KeywordRule) error {
	c.rules, c.ok = rules, true
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context) error {
	c.invalidated++
	c.rules, c.ok = nil, false
	return nil
}

func TestAddRule_Validation(t *testing.T) {
	r := NewRegistry(memory.New(), nil, zaptest.NewLogger(t))
	ctx := context.Background()

	tests := []struct {
		name  string
		in    models.NewKeywordRule
		field string
	}{
		{"empty keyword", models.NewKeywordRule{Keyword: "  ", Category: models.CategorySpam, Severity: 3}, "keyword"},
		{"severity too low", models.NewKeywordRule{Keyword: "scam", Category: models.CategorySpam, Severity: 0}, "severity"},
		{"severity too high", models.NewKeywordRule{Keyword: "scam", Category: models.CategorySpam, Severity: 6}, "severity"},
		{"unknown category", models.NewKeywordRule{Keyword: "scam", Category: "gambling", Severity: 3}, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.AddRule(ctx, tt.in)
			require.ErrorIs(t, err, apperr.ErrValidation)
			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestAddRule_NormalizesAndRejectsDuplicates(t *testing.T) {
	r := NewRegistry(memory.New(), nil, zaptest.NewLogger(t))
	ctx := context.Background()

	rule, err := r.AddRule(ctx, models.NewKeywordRule{Keyword: "  Free   MONEY ", Category: models.CategorySpam, Severity: 3})
	require.NoError(t, err)
	assert.Equal(t, "free money", rule.Keyword)
	assert.True(t, rule.IsActive)

	_, err = r.AddRule(ctx, models.NewKeywordRule{Keyword: "FREE MONEY", Category: models.CategoryCustom, Severity: 1})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUpdateRule(t *testing.T) {
	r := NewRegistry(memory.New(), nil, zaptest.NewLogger(t))
	ctx := context.Background()

	rule, err := r.AddRule(ctx, models.NewKeywordRule{Keyword: "scam", Category: models.CategorySpam, Severity: 3})
	require.NoError(t, err)

	severity := 5
	category := models.CategoryLegal
	updated, err := r.UpdateRule(ctx, rule.ID, models.KeywordRulePatch{Severity: &severity, Category: &category})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Severity)
	assert.Equal(t, models.CategoryLegal, updated.Category)
	assert.Equal(t, "scam", updated.Keyword)

	bad := 9
	_, err = r.UpdateRule(ctx, rule.ID, models.KeywordRulePatch{Severity: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = r.UpdateRule(ctx, rule.ID, models.KeywordRulePatch{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = r.UpdateRule(ctx, uuid.New(), models.KeywordRulePatch{Severity: &severity})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestToggleActive_AffectsScanning(t *testing.T) {
	r := NewRegistry(memory.New(), nil, zaptest.NewLogger(t))
	ctx := context.Background()
	text := "looks like a scam"

	rule, err := r.AddRule(ctx, models.NewKeywordRule{Keyword: "scam", Category: models.CategorySpam, Severity: 4})
	require.NoError(t, err)

	active, err := r.ListActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, Scan(active, text, models.ContentMessage, "m1", "u1"))

	toggled, err := r.ToggleActive(ctx, rule.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	active, err = r.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.Nil(t, Scan(active, text, models.ContentMessage, "m1", "u1"))

	toggled, err = r.ToggleActive(ctx, rule.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	_, err = r.ToggleActive(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestToggleActive_ConflictOnReactivation(t *testing.T) {
	r := NewRegistry(memory.New(), nil, zaptest.NewLogger(t))
	ctx := context.Background()

	old, err := r.AddRule(ctx, models.NewKeywordRule{Keyword: "scam", Category: models.CategorySpam, Severity: 2})
	require.NoError(t, err)
	_, err = r.ToggleActive(ctx, old.ID)
	require.NoError(t, err)

	_, err = r.AddRule(ctx, models.NewKeywordRule{Keyword: "scam", Category: models.CategorySpam, Severity: 4})
	require.NoError(t, err)

	_, err = r.ToggleActive(ctx, old.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestDeleteRule_KeepsFlagSnapshots(t *testing.T) {
	s := memory.New()
	logger := zaptest.NewLogger(t)
	r := NewRegistry(s, nil, logger)
	l := NewLedger(s, logger)
	ctx := context.Background()

	rule, err := r.AddRule(ctx, models.NewKeywordRule{Keyword: "scam", Category: models.CategorySpam, Severity: 4})
	require.NoError(t, err)

	flag, err := l.CreateFlag(ctx, candidate())
	require.NoError(t, err)

	require.NoError(t, r.DeleteRule(ctx, rule.ID))
	assert.ErrorIs(t, r.DeleteRule(ctx, rule.ID), apperr.ErrNotFound)

	got, err := l.GetFlag(ctx, flag.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"scam"}, got.MatchedKeywords)
}

func TestListActive_UsesCache(t *testing.T) {
	cache := &fakeCache{}
	r := NewRegistry(memory.New(), cache, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := r.AddRule(ctx, models.NewKeywordRule{Keyword: "scam", Category: models.CategorySpam, Severity: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	first, err := r.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, cache.ok)

	second, err := r.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, cache.gets)

	_, err = r.ToggleActive(ctx, first[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.invalidated)

	active, err := r.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestListActive_CacheErrorFallsBack(t *testing.T) {
	cache := &fakeCache{err: errors.New("connection refused")}
	r := NewRegistry(memory.New(), cache, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := r.AddRule(ctx, models.NewKeywordRule{Keyword: "scam", Category: models.CategorySpam, Severity: 4})
	require.NoError(t, err)

	rules, err := r.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestSeed(t *testing.T) {
	r := NewRegistry(memory.New(), nil, zaptest.NewLogger(t))
	ctx := context.Background()

	existing, err := r.AddRule(ctx, models.NewKeywordRule{Keyword: "scam", Category: models.CategorySpam, Severity: 4})
	require.NoError(t, err)
	_, err = r.ToggleActive(ctx, existing.ID)
	require.NoError(t, err)

	added, err := r.Seed(ctx, []models.NewKeywordRule{
		{Keyword: "Scam", Category: models.CategorySpam, Severity: 3},
		{Keyword: "lawsuit", Category: models.CategoryLegal, Severity: 9},
		{Keyword: "LAWSUIT", Category: models.CategoryLegal, Severity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	rules, err := r.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.False(t, rules[0].IsActive, "seeding must not re-activate a disabled keyword")
	assert.Equal(t, "lawsuit", rules[1].Keyword)
	assert.Equal(t, 5, rules[1].Severity)
}
