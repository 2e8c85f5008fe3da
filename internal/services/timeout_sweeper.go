package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OverdueSweeper is the use case the sweeper drives.
type OverdueSweeper interface {
	TimeOutOverdue(ctx context.Context) (int, error)
}

// TimeoutSweeper periodically moves overdue tasks to Timeout on the server so
// tasks expire even when no board is open.
type TimeoutSweeper struct {
	uc       OverdueSweeper
	monitor  ConnectionHealth
	logger   *zap.Logger
	cron     *cron.Cron
	interval time.Duration
	running  atomic.Bool
}

func NewTimeoutSweeper(uc OverdueSweeper, monitor ConnectionHealth, interval time.Duration, logger *zap.Logger) *TimeoutSweeper {
	if interval < time.Second {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &TimeoutSweeper{
		uc:       uc,
		monitor:  monitor,
		logger:   logger,
		cron:     cron.New(cron.WithSeconds()),
		interval: interval,
	}

	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	if _, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		_, _ = s.Sweep(ctx)
	}); err != nil {
		logger.Error("failed to schedule timeout sweep", zap.String("schedule", schedule), zap.Error(err))
	}
	return s
}

func (s *TimeoutSweeper) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("timeout sweeper started", zap.Duration("interval", s.interval))
}

func (s *TimeoutSweeper) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("timeout sweeper stopped")
}

// Sweep runs one pass. A pass is skipped while Postgres is unreachable or
// while the previous pass is still running.
func (s *TimeoutSweeper) Sweep(ctx context.Context) (int, error) {
	if s.monitor != nil && !s.monitor.IsOnline() {
		s.logger.Debug("skipping timeout sweep (offline)")
		return 0, nil
	}
	if !s.running.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer s.running.Store(false)

	moved, err := s.uc.TimeOutOverdue(ctx)
	if err != nil {
		s.logger.Error("timeout sweep failed", zap.Error(err))
		return moved, err
	}
	if moved > 0 {
		s.logger.Info("tasks timed out", zap.Int("count", moved))
	}
	return moved, nil
}
