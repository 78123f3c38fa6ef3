package moderation

import (
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modengine/internal/models"
)

func rule(keyword string, category models.Category, severity int) models.KeywordRule {
	return models.KeywordRule{Keyword: keyword, Category: category, Severity: severity, IsActive: true}
}

func TestScan_WordBoundaries(t *testing.T) {
	rules := []models.KeywordRule{rule("scam", models.CategorySpam, 4)}

	tests := []struct {
		name  string
		text  string
		match bool
	}{
		{"whole word", "this offer looks like a scam", true},
		{"uppercase", "SCAM ALERT", true},
		{"punctuation after", "total scam!", true},
		{"punctuation before", "(scam)", true},
		{"only word", "scam", true},
		{"prefix of longer word", "scampi for dinner", false},
		{"suffix of longer word", "antiscam tooling", false},
		{"digits attached", "scam2", false},
		{"later occurrence bounded", "scampi or a scam", true},
		{"unicode letter attached", "scamé", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scan(rules, tt.text, models.ContentMessage, "m1", "u1")
			if tt.match {
				require.NotNil(t, got, "Scan(%q) = nil, want candidate", tt.text)
			} else {
				assert.Nil(t, got, "Scan(%q) = %+v, want nil", tt.text, got)
			}
		})
	}
}

func TestScan_MultiWordAndPunctuationKeywords(t *testing.T) {
	rules := []models.KeywordRule{
		rule("wire the money", models.CategorySpam, 3),
		rule("$$$", models.CategorySpam, 2),
	}

	got := Scan(rules, "Please WIRE THE MONEY today", models.ContentMessage, "m1", "u1")
	require.NotNil(t, got)
	assert.Equal(t, []string{"wire the money"}, got.MatchedKeywords)

	got = Scan(rules, "earn$$$fast", models.ContentMessage, "m1", "u1")
	require.NotNil(t, got)
	assert.Equal(t, []string{"$$$"}, got.MatchedKeywords)
}

func TestScan_CandidateFields(t *testing.T) {
	rules := []models.KeywordRule{
		rule("lawsuit", models.CategoryLegal, 2),
		rule("scam", models.CategorySpam, 4),
		rule("idiot", models.CategoryHarassment, 3),
		rule("fraud", models.CategorySpam, 5),
	}

	got := Scan(rules, "Scam artists! I'll file a lawsuit, idiot. scam scam", models.ContentReview, "r9", "u7")
	require.NotNil(t, got)

	assert.Equal(t, models.ContentReview, got.ContentType)
	assert.Equal(t, "r9", got.ContentID)
	assert.Equal(t, "u7", got.UserID)
	assert.Equal(t, []string{"lawsuit", "scam", "idiot"}, got.MatchedKeywords)
	assert.Equal(t, 4, got.Severity)
	assert.Equal(t, []models.Category{models.CategoryHarassment, models.CategoryLegal, models.CategorySpam}, got.Categories)
	assert.Equal(t, "Matched 3 keyword(s) in categories harassment, legal, spam", got.FlagReason)
}

func TestScan_SingleCategoryReason(t *testing.T) {
	rules := []models.KeywordRule{
		rule("scam", models.CategorySpam, 4),
		rule("free money", models.CategorySpam, 2),
	}

	got := Scan(rules, "free money, not a scam", models.ContentMessage, "m1", "u1")
	require.NotNil(t, got)
	assert.Equal(t, "Matched 2 keyword(s) in category spam", got.FlagReason)
}

func TestScan_SkipsInactiveRules(t *testing.T) {
	r := rule("scam", models.CategorySpam, 4)
	text := "this is a scam"

	require.NotNil(t, Scan([]models.KeywordRule{r}, text, models.ContentMessage, "m1", "u1"))

	r.IsActive = false
	assert.Nil(t, Scan([]models.KeywordRule{r}, text, models.ContentMessage, "m1", "u1"))
}

func TestScan_DuplicateRulesReportedOnce(t *testing.T) {
	rules := []models.KeywordRule{
		rule("scam", models.CategorySpam, 2),
		rule("SCAM", models.CategoryCustom, 5),
	}

	got := Scan(rules, "scam", models.ContentMessage, "m1", "u1")
	require.NotNil(t, got)
	assert.Equal(t, []string{"scam"}, got.MatchedKeywords)
	assert.Equal(t, 2, got.Severity)
}

// Randomized check: for generated texts, the candidate contains exactly the
// keywords placed as whole words, with max severity.
func TestScan_RandomizedProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	vocabulary := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	filler := []string{"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog", "alphabet", "echoes"}

	var rules []models.KeywordRule
	for i, kw := range vocabulary {
		rules = append(rules, rule(kw, models.Categories[i%len(models.Categories)], i%5+1))
	}

	for iter := 0; iter < 500; iter++ {
		var words []string
		placed := map[string]bool{}
		for n := rng.Intn(12); n >= 0; n-- {
			if rng.Intn(4) == 0 {
				kw := vocabulary[rng.Intn(len(vocabulary))]
				placed[kw] = true
				words = append(words, strings.ToUpper(kw[:1])+kw[1:])
			} else {
				words = append(words, filler[rng.Intn(len(filler))])
			}
		}
		text := strings.Join(words, " ")

		got := Scan(rules, text, models.ContentMessage, "m", "u")
		if len(placed) == 0 {
			assert.Nil(t, got, "text %q", text)
			continue
		}

		require.NotNil(t, got, "text %q", text)
		wantSeverity := 0
		var want []string
		for _, r := range rules {
			if placed[r.Keyword] {
				want = append(want, r.Keyword)
				wantSeverity = max(wantSeverity, r.Severity)
			}
		}
		assert.Equal(t, want, got.MatchedKeywords, "text %q", text)
		assert.Equal(t, wantSeverity, got.Severity, "text %q", text)
		assert.True(t, slices.IsSorted(got.Categories))
	}
}
