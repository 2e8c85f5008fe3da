package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/repository"
)

// errUnreplayable marks buffered writes that can never succeed, such as a
// payload that no longer decodes.
var errUnreplayable = errors.New("unreplayable buffer item")

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// Retention drops buffered writes older than this on every drain. Zero keeps them.
	Retention time.Duration
}

// BufferProcessor replays buffered task writes into Postgres.
type BufferProcessor struct {
	store     *buffer.Store
	monitor   ConnectionHealth
	taskRepo  repository.TaskRepository
	eventRepo repository.EventRepository
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	taskRepo repository.TaskRepository,
	eventRepo repository.EventRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:     store,
		monitor:   monitor,
		taskRepo:  taskRepo,
		eventRepo: eventRepo,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	}); err != nil {
		logger.Error("failed to schedule buffer drain", zap.String("schedule", schedule), zap.Error(err))
	}

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started")
}

// Stop gracefully stops the scheduler.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain processes buffered items synchronously.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	if bp.cfg.Retention > 0 {
		removed, err := bp.store.Cleanup(time.Now().Add(-bp.cfg.Retention))
		if err != nil {
			bp.logger.Warn("buffer cleanup failed", zap.Error(err))
		} else if removed > 0 {
			bp.logger.Warn("dropped expired buffer items", zap.Int("count", removed))
		}
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		err := bp.processItem(ctx, item)
		if err == nil {
			if err := bp.store.Remove(item); err != nil {
				bp.logger.Warn("failed to purge processed buffer item", zap.Error(err))
			}
			continue
		}

		log := bp.logger.With(
			zap.String("item_id", item.ID),
			zap.String("task_id", item.TaskID),
			zap.String("entity", item.Entity),
			zap.String("operation", item.Operation))
		log.Error("failed to process buffer item", zap.Error(err))

		item.Retries++
		if errors.Is(err, errUnreplayable) || item.Retries >= bp.cfg.MaxRetries {
			log.Warn("burying buffer item", zap.Int("retries", item.Retries))
			if err := bp.store.Bury(item, err.Error()); err != nil {
				log.Error("failed to bury buffer item", zap.Error(err))
			}
			continue
		}
		if err := bp.store.Retry(item); err != nil {
			log.Error("failed to requeue buffer item", zap.Error(err))
		}
	}
	return nil
}

// BufferOperation attempts to run the operation immediately and falls back to persisting it.
func (bp *BufferProcessor) BufferOperation(ctx context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}

	if bp.monitor == nil || bp.monitor.IsOnline() {
		if err := bp.processItem(ctx, item); err == nil {
			return nil
		} else {
			bp.logger.Warn("immediate processing failed, buffering", zap.Error(err))
		}
	}
	return bp.store.Enqueue(item)
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch item.Entity {
	case buffer.EntityTask:
		var task domain.Task
		if err := json.Unmarshal(item.Data, &task); err != nil {
			return fmt.Errorf("%w: decode task: %v", errUnreplayable, err)
		}
		switch item.Operation {
		case buffer.OperationCreate:
			_, err := bp.taskRepo.Create(ctx, &task)
			if domain.IsDomainError(err, domain.ErrCodeConflict) {
				return nil
			}
			return err
		case buffer.OperationUpdate:
			return bp.taskRepo.Update(ctx, &task)
		case buffer.OperationDelete:
			err := bp.taskRepo.Delete(ctx, task.ID)
			if errors.Is(err, domain.ErrTaskNotFound) {
				return nil
			}
			return err
		default:
			return fmt.Errorf("%w: operation %s", errUnreplayable, item.Operation)
		}

	case buffer.EntityEvent:
		if bp.eventRepo == nil {
			return nil
		}
		var event domain.TaskEvent
		if err := json.Unmarshal(item.Data, &event); err != nil {
			return fmt.Errorf("%w: decode event: %v", errUnreplayable, err)
		}
		return bp.eventRepo.Append(ctx, event)

	default:
		return fmt.Errorf("%w: entity %s", errUnreplayable, item.Entity)
	}
}
