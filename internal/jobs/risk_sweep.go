package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"modengine/internal/models"
)

// HighRiskChecker runs the escalation check.
type HighRiskChecker interface {
	CheckHighRisk(ctx context.Context) ([]models.CompanyRiskAssessment, error)
}

// RiskSweep periodically re-checks every company so escalations are noticed
// without an admin triggering the check.
type RiskSweep struct {
	checker  HighRiskChecker
	schedule string
	timeout  time.Duration
	logger   *zap.Logger
	cron     *cron.Cron
}

// NewRiskSweep creates a sweep on a standard cron spec or descriptor such as
// "@every 1h". Each run is bounded by timeout.
func NewRiskSweep(checker HighRiskChecker, schedule string, timeout time.Duration, logger *zap.Logger) *RiskSweep {
	cl := cronLogger{logger.Sugar()}
	return &RiskSweep{
		checker:  checker,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Start runs one sweep immediately and then schedules the rest. The schedule
// stops when ctx is cancelled.
func (s *RiskSweep) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid risk sweep schedule %q: %w", s.schedule, err)
	}

	s.logger.Info("risk sweep started", zap.String("schedule", s.schedule))
	go s.RunOnce(ctx)
	s.cron.Start()

	go func() {
		<-ctx.Done()
		<-s.Stop().Done()
		s.logger.Info("risk sweep stopped")
	}()
	return nil
}

// Stop halts scheduling. The returned context is done once a running sweep finishes.
func (s *RiskSweep) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce performs a single sweep.
func (s *RiskSweep) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	newlyHigh, err := s.checker.CheckHighRisk(ctx)
	if err != nil {
		s.logger.Error("risk sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("risk sweep complete",
		zap.Int("newly_high", len(newlyHigh)),
		zap.Duration("took", time.Since(start)),
	)
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
