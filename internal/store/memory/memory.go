// Package memory is an in-process implementation of store.Store. It backs tests
// and STORAGE_DRIVER=memory deployments.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"modengine/internal/models"
	"modengine/internal/store"
)

// Company is the in-memory record of the host's company data.
type Company struct {
	ID                  uuid.UUID
	CreatedAt           time.Time
	PendingVerification bool
	ProfileCompleteness float64
	DataMismatch        bool
	DisputedPayments    int
	UserIDs             []string
}

// Store keeps everything in maps guarded by a single RWMutex.
type Store struct {
	mu sync.RWMutex

	rules     []models.KeywordRule // creation order
	flags     []models.ContentFlag // creation order
	companies map[uuid.UUID]Company
	levels    map[uuid.UUID]models.RiskLevel
	snapshots map[uuid.UUID][]models.CompanyRiskAssessment

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		companies: make(map[uuid.UUID]Company),
		levels:    make(map[uuid.UUID]models.RiskLevel),
		snapshots: make(map[uuid.UUID][]models.CompanyRiskAssessment),
		now:       time.Now,
	}
}

// SetClock replaces the time source used for created/updated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// PutCompany inserts or replaces a company record.
func (s *Store) PutCompany(c Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.UserIDs = slices.Clone(c.UserIDs)
	s.companies[c.ID] = c
}

// Keyword rules

func (s *Store) activeKeywordTaken(keyword string, except uuid.UUID) bool {
	for _, r := range s.rules {
		if r.IsActive && r.ID != except && strings.EqualFold(r.Keyword, keyword) {
			return true
		}
	}
	return false
}

func (s *Store) ruleIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.rules, func(r models.KeywordRule) bool { return r.ID == id })
}

// CreateRule inserts rule and fills its id and timestamps.
func (s *Store) CreateRule(ctx context.Context, rule *models.KeywordRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rule.IsActive && s.activeKeywordTaken(rule.Keyword, uuid.Nil) {
		return store.ErrDuplicateKeyword
	}
	now := s.now()
	rule.ID = uuid.New()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	s.rules = append(s.rules, cloneRule(*rule))
	return nil
}

// GetRule returns a rule by id.
func (s *Store) GetRule(ctx context.Context, id uuid.UUID) (*models.KeywordRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.ruleIndex(id)
	if i < 0 {
		return nil, store.ErrRuleNotFound
	}
	r := cloneRule(s.rules[i])
	return &r, nil
}

// UpdateRule replaces the mutable fields of an existing rule.
func (s *Store) UpdateRule(ctx context.Context, rule *models.KeywordRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.ruleIndex(rule.ID)
	if i < 0 {
		return store.ErrRuleNotFound
	}
	if rule.IsActive && s.activeKeywordTaken(rule.Keyword, rule.ID) {
		return store.ErrDuplicateKeyword
	}
	rule.CreatedAt = s.rules[i].CreatedAt
	rule.UpdatedAt = s.now()
	s.rules[i] = cloneRule(*rule)
	return nil
}

// ToggleRule flips the active flag of a rule.
func (s *Store) ToggleRule(ctx context.Context, id uuid.UUID) (*models.KeywordRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.ruleIndex(id)
	if i < 0 {
		return nil, store.ErrRuleNotFound
	}
	r := &s.rules[i]
	if !r.IsActive && s.activeKeywordTaken(r.Keyword, r.ID) {
		return nil, store.ErrDuplicateKeyword
	}
	r.IsActive = !r.IsActive
	r.UpdatedAt = s.now()
	out := cloneRule(*r)
	return &out, nil
}

// DeleteRule removes a rule. Flags are untouched.
func (s *Store) DeleteRule(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.ruleIndex(id)
	if i < 0 {
		return store.ErrRuleNotFound
	}
	s.rules = slices.Delete(s.rules, i, i+1)
	return nil
}

// ListRules returns rules in creation order.
func (s *Store) ListRules(ctx context.Context, activeOnly bool) ([]models.KeywordRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]models.KeywordRule, 0, len(s.rules))
	for _, r := range s.rules {
		if activeOnly && !r.IsActive {
			continue
		}
		rules = append(rules, cloneRule(r))
	}
	return rules, nil
}

// Flags

func (s *Store) flagIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.flags, func(f models.ContentFlag) bool { return f.ID == id })
}

// CreateFlag inserts a flag and fills its id and creation time.
func (s *Store) CreateFlag(ctx context.Context, flag *models.ContentFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flag.ID = uuid.New()
	flag.CreatedAt = s.now()
	s.flags = append(s.flags, cloneFlag(*flag))
	return nil
}

// GetFlag returns a flag by id.
func (s *Store) GetFlag(ctx context.Context, id uuid.UUID) (*models.ContentFlag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.flagIndex(id)
	if i < 0 {
		return nil, store.ErrFlagNotFound
	}
	f := cloneFlag(s.flags[i])
	return &f, nil
}

// ListFlags returns matching flags, newest first.
func (s *Store) ListFlags(ctx context.Context, filter models.FlagFilter) ([]models.ContentFlag, error) {
	filter = filter.Normalize()
	term := strings.ToLower(strings.TrimSpace(filter.Search))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.ContentFlag
	for i := len(s.flags) - 1; i >= 0; i-- {
		f := s.flags[i]
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.ContentType != "" && f.ContentType != filter.ContentType {
			continue
		}
		if term != "" && !flagMatchesSearch(f, term) {
			continue
		}
		matched = append(matched, f)
	}

	if filter.Offset >= len(matched) {
		return []models.ContentFlag{}, nil
	}
	end := min(filter.Offset+filter.Limit, len(matched))
	page := make([]models.ContentFlag, 0, end-filter.Offset)
	for _, f := range matched[filter.Offset:end] {
		page = append(page, cloneFlag(f))
	}
	return page, nil
}

func flagMatchesSearch(f models.ContentFlag, term string) bool {
	if strings.Contains(strings.ToLower(f.FlagReason), term) ||
		strings.Contains(strings.ToLower(f.ContentID), term) {
		return true
	}
	for _, k := range f.MatchedKeywords {
		if strings.Contains(strings.ToLower(k), term) {
			return true
		}
	}
	return false
}

// ResolveFlag moves a pending flag to a terminal status under the write lock.
func (s *Store) ResolveFlag(ctx context.Context, id uuid.UUID, res models.FlagResolution) (*models.ContentFlag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.flagIndex(id)
	if i < 0 {
		return nil, store.ErrFlagNotFound
	}
	f := &s.flags[i]
	if f.Status != models.FlagPending {
		return nil, store.ErrFlagNotPending
	}

	reviewedBy := res.ReviewedBy
	reviewedAt := res.ReviewedAt
	f.Status = res.Status
	f.ReviewedBy = &reviewedBy
	f.ReviewedAt = &reviewedAt
	if res.AdminNotes != nil {
		f.AdminNotes = ptr(*res.AdminNotes)
	}
	if res.ActionTaken != nil {
		f.ActionTaken = ptr(*res.ActionTaken)
	}

	out := cloneFlag(*f)
	return &out, nil
}

// CountFlags groups flags by status and content type.
func (s *Store) CountFlags(ctx context.Context) ([]models.FlagCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		status models.FlagStatus
		ct     models.ContentType
	}
	counts := make(map[key]int)
	for _, f := range s.flags {
		counts[key{f.Status, f.ContentType}]++
	}

	out := make([]models.FlagCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.FlagCount{Status: k.status, ContentType: k.ct, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return out[i].ContentType < out[j].ContentType
	})
	return out, nil
}

// Companies

// ListCompanyIDs returns company ids in a stable order.
func (s *Store) ListCompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.companies))
	for id := range s.companies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// GetRiskSignals derives indicator inputs from the company record and the flags
// of its users. Dismissed flags are false positives and do not count.
func (s *Store) GetRiskSignals(ctx context.Context, companyID uuid.UUID, since time.Time) (*models.RiskSignals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.companies[companyID]
	if !ok {
		return nil, store.ErrCompanyNotFound
	}

	signals := &models.RiskSignals{
		CompanyID:             c.ID,
		AccountAgeDays:        int(s.now().Sub(c.CreatedAt).Hours() / 24),
		PendingVerification:   c.PendingVerification,
		ProfileCompleteness:   c.ProfileCompleteness,
		DisputedPaymentsCount: c.DisputedPayments,
		DataMismatch:          c.DataMismatch,
	}

	severitySum := 0
	for _, f := range s.flags {
		if f.Status == models.FlagDismissed || f.CreatedAt.Before(since) {
			continue
		}
		if !slices.Contains(c.UserIDs, f.UserID) {
			continue
		}
		signals.FlagCountLast90Days++
		severitySum += f.Severity
	}
	if signals.FlagCountLast90Days > 0 {
		signals.AvgFlagSeverity = float64(severitySum) / float64(signals.FlagCountLast90Days)
	}
	return signals, nil
}

// RecordLevel stores the level and reports whether it changed.
func (s *Store) RecordLevel(ctx context.Context, companyID uuid.UUID, level models.RiskLevel, score int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.levels[companyID]
	s.levels[companyID] = level
	return !ok || prev != level, nil
}

// SaveSnapshot appends an assessment to the company's history.
func (s *Store) SaveSnapshot(ctx context.Context, a *models.CompanyRiskAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	cp.RiskIndicators = slices.Clone(a.RiskIndicators)
	s.snapshots[a.CompanyID] = append(s.snapshots[a.CompanyID], cp)
	return nil
}

// ListSnapshots returns the newest snapshots first.
func (s *Store) ListSnapshots(ctx context.Context, companyID uuid.UUID, limit int) ([]models.CompanyRiskAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.snapshots[companyID]
	out := make([]models.CompanyRiskAssessment, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		a := history[i]
		a.RiskIndicators = slices.Clone(a.RiskIndicators)
		out = append(out, a)
	}
	return out, nil
}

func cloneRule(r models.KeywordRule) models.KeywordRule {
	if r.Description != nil {
		r.Description = ptr(*r.Description)
	}
	return r
}

func cloneFlag(f models.ContentFlag) models.ContentFlag {
	f.MatchedKeywords = slices.Clone(f.MatchedKeywords)
	if f.ReviewedBy != nil {
		f.ReviewedBy = ptr(*f.ReviewedBy)
	}
	if f.ReviewedAt != nil {
		f.ReviewedAt = ptr(*f.ReviewedAt)
	}
	if f.AdminNotes != nil {
		f.AdminNotes = ptr(*f.AdminNotes)
	}
	if f.ActionTaken != nil {
		f.ActionTaken = ptr(*f.ActionTaken)
	}
	return f
}

func ptr[T any](v T) *T { return &v }
