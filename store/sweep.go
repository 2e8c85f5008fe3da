package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
)

// DefaultSweepInterval matches the board's once-a-minute timeout check.
const DefaultSweepInterval = time.Minute

// Sweep moves every overdue task to Timeout. Each move goes through the
// backend so a later fetch does not bring the old category back; a task whose
// update fails keeps its category locally and is retried on the next sweep.
// Each task is checked again right before its move, so one completed or
// deleted meanwhile is skipped. It returns how many tasks were moved.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	now := s.now()

	s.mu.RLock()
	var overdue []string
	for i := range s.tasks {
		if s.tasks[i].Overdue(now) {
			overdue = append(overdue, s.tasks[i].ID)
		}
	}
	s.mu.RUnlock()

	var (
		moved int
		errs  error
	)
	for _, id := range overdue {
		if err := ctx.Err(); err != nil {
			return moved, errors.Join(errs, err)
		}
		if current, ok := s.Find(id); !ok || !current.Overdue(s.now()) {
			continue
		}
		updated, err := s.remote.Update(ctx, id, domain.CategoryPatch(domain.CategoryTimeout))
		if err != nil {
			s.logger.Warn("timeout sweep update failed", zap.String("task_id", id), zap.Error(err))
			errs = errors.Join(errs, err)
			continue
		}
		s.replace(id, updated)
		moved++
	}

	if moved > 0 {
		s.logger.Info("tasks timed out", zap.Int("count", moved))
	}
	return moved, errs
}

// RunSweeper sweeps every interval until ctx is cancelled. onTick, if set, is
// called after each sweep with the number of tasks moved.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration, onTick func(moved int)) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			moved, err := s.Sweep(ctx)
			if err != nil && ctx.Err() == nil {
				s.logger.Debug("timeout sweep incomplete", zap.Error(err))
			}
			if onTick != nil {
				onTick(moved)
			}
		case <-ctx.Done():
			return
		}
	}
}
