package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner runs checks for every project and returns how many were stored.
type Runner interface {
	RunAll(ctx context.Context) (int, error)
}

// Scheduler runs a Runner on a cron spec with a seconds field, e.g. "0 0 6 * * *".
// Overlapping ticks are skipped while a run is still going.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	logger  *zap.Logger
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(spec string, runner Runner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		runner: runner,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := s.cron.AddFunc(spec, s.Tick); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("check scheduler started")
}

// Stop cancels an in-flight run and waits for it until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

// Tick runs one pass over all projects.
func (s *Scheduler) Tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous check run still in progress, skipping tick")
		return
	}
	defer s.running.Store(false)

	start := time.Now()
	n, err := s.runner.RunAll(s.ctx)
	if err != nil {
		s.logger.Error("scheduled check run failed", zap.Error(err), zap.Int("checks_created", n))
		return
	}
	s.logger.Info("scheduled check run finished",
		zap.Int("checks_created", n),
		zap.Duration("duration", time.Since(start)),
	)
}
