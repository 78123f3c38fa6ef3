package risk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"modengine/internal/apperr"
	"modengine/internal/models"
	"modengine/internal/store/memory"
)

type recordingAlerter struct {
	mu    sync.Mutex
	calls [][]models.CompanyRiskAssessment
	err   error
}

func (a *recordingAlerter) NotifyHighRisk(ctx context.Context, assessments []models.CompanyRiskAssessment) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, assessments)
	return a.err
}

func newTestService(t *testing.T, cfg Config) (*Service, *memory.Store) {
	t.Helper()
	s := memory.New()
	s.SetClock(func() time.Time { return fixedNow })
	svc := NewService(s, cfg, zaptest.NewLogger(t))
	svc.now = func() time.Time { return fixedNow }
	return svc, s
}

func company(ageDays int, mutate ...func(*memory.Company)) memory.Company {
	c := memory.Company{
		ID:                  uuid.New(),
		CreatedAt:           fixedNow.Add(-time.Duration(ageDays) * 24 * time.Hour),
		ProfileCompleteness: 1,
	}
	for _, m := range mutate {
		m(&c)
	}
	return c
}

func highRisk(c *memory.Company) {
	c.PendingVerification = true
	c.DataMismatch = true
	c.DisputedPayments = 3
}

func TestAssess(t *testing.T) {
	svc, s := newTestService(t, Config{})
	ctx := context.Background()

	c := company(5, func(c *memory.Company) {
		c.UserIDs = []string{"owner"}
		c.DisputedPayments = 1
	})
	s.PutCompany(c)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateFlag(ctx, &models.ContentFlag{UserID: "owner", Severity: 4, Status: models.FlagPending}))
	}

	a, err := svc.Assess(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 54, a.RiskScore)
	assert.Equal(t, models.RiskMedium, a.RiskLevel)

	_, err = svc.Assess(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAssessAll_PreservesOrder(t *testing.T) {
	svc, s := newTestService(t, Config{Concurrency: 3})
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 20; i++ {
		c := company(i * 10)
		s.PutCompany(c)
		ids = append(ids, c.ID)
	}

	got, err := svc.AssessAll(ctx, ids)
	require.NoError(t, err)
	require.Len(t, got, len(ids))
	for i, a := range got {
		assert.Equal(t, ids[i], a.CompanyID)
	}
}

func TestAssessAll_Cancelled(t *testing.T) {
	svc, s := newTestService(t, Config{Concurrency: 1})

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		c := company(100)
		s.PutCompany(c)
		ids = append(ids, c.ID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := svc.AssessAll(ctx, ids)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, got)
}

func TestAssessAll_UnknownCompany(t *testing.T) {
	svc, s := newTestService(t, Config{})
	c := company(100)
	s.PutCompany(c)

	_, err := svc.AssessAll(context.Background(), []uuid.UUID{c.ID, uuid.New()})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCheckHighRisk_NotifiesOncePerEscalation(t *testing.T) {
	alerter := &recordingAlerter{}
	svc, s := newTestService(t, Config{Alerter: alerter})
	ctx := context.Background()

	risky := company(5, highRisk)
	calm := company(400)
	s.PutCompany(risky)
	s.PutCompany(calm)

	first, err := svc.CheckHighRisk(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, risky.ID, first[0].CompanyID)
	assert.Equal(t, models.RiskHigh, first[0].RiskLevel)

	second, err := svc.CheckHighRisk(ctx)
	require.NoError(t, err)
	assert.Empty(t, second, "unchanged high level must not alert again")

	// Drop below high, then climb back: alerts again.
	risky.DataMismatch = false
	risky.PendingVerification = false
	s.PutCompany(risky)
	third, err := svc.CheckHighRisk(ctx)
	require.NoError(t, err)
	assert.Empty(t, third)

	s.PutCompany(company(5, highRisk, func(c *memory.Company) { c.ID = risky.ID }))
	fourth, err := svc.CheckHighRisk(ctx)
	require.NoError(t, err)
	require.Len(t, fourth, 1)

	assert.Len(t, alerter.calls, 2)
}

func TestCheckHighRisk_AlertFailureDoesNotFail(t *testing.T) {
	alerter := &recordingAlerter{err: errors.New("smtp down")}
	svc, s := newTestService(t, Config{Alerter: alerter})
	s.PutCompany(company(5, highRisk))

	got, err := svc.CheckHighRisk(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestList_FilterAndSort(t *testing.T) {
	svc, s := newTestService(t, Config{})
	ctx := context.Background()

	s.PutCompany(company(400))           // 0
	s.PutCompany(company(5))             // 20
	s.PutCompany(company(5, highRisk))   // 20+15+30+15 = 80
	s.PutCompany(company(400, highRisk)) // 60

	all, err := svc.List(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []int{80, 60, 20, 0}, scores(all))

	asc, err := svc.List(ctx, Query{SortAsc: true, MinScore: 20})
	require.NoError(t, err)
	assert.Equal(t, []int{20, 60, 80}, scores(asc))

	medium, err := svc.List(ctx, Query{Level: models.RiskMedium})
	require.NoError(t, err)
	assert.Equal(t, []int{60}, scores(medium))

	_, err = svc.List(ctx, Query{Level: "critical"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSnapshotsAndHistory(t *testing.T) {
	svc, s := newTestService(t, Config{SaveSnapshots: true})
	ctx := context.Background()

	c := company(5)
	s.PutCompany(c)

	for i := 0; i < 3; i++ {
		_, err := svc.Assess(ctx, c.ID)
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, c.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	limited, err := svc.History(ctx, c.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	noSnapshots, s2 := newTestService(t, Config{})
	s2.PutCompany(c)
	_, err = noSnapshots.Assess(ctx, c.ID)
	require.NoError(t, err)
	empty, err := noSnapshots.History(ctx, c.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func scores(as []models.CompanyRiskAssessment) []int {
	out := make([]int, len(as))
	for i, a := range as {
		out[i] = a.RiskScore
	}
	return out
}
