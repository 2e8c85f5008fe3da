package task

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

// maxEvents bounds a task history listing.
const maxEvents = 200

type UseCase struct {
	tasks  repository.TaskRepository
	events repository.EventRepository
	cache  repository.TaskCache
	buffer usecase.OperationBuffer
	logger *zap.Logger
	now    func() time.Time

	// writes counts completed writes; a listing read across one is not cached.
	writes atomic.Uint64
}

// Option customises a UseCase.
type Option func(*UseCase)

// WithEvents records task history through events.
func WithEvents(events repository.EventRepository) Option {
	return func(uc *UseCase) { uc.events = events }
}

// WithCache serves unfiltered listings from cache.
func WithCache(cache repository.TaskCache) Option {
	return func(uc *UseCase) { uc.cache = cache }
}

// WithBuffer parks writes in buffer when the repository fails.
func WithBuffer(buffer usecase.OperationBuffer) Option {
	return func(uc *UseCase) { uc.buffer = buffer }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

func New(tasks repository.TaskRepository, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		tasks:  tasks,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	cacheable := uc.cache != nil && filter.IsZero()
	seen := uc.writes.Load()
	if cacheable {
		cached, ok, err := uc.cache.GetAll(ctx)
		if err != nil {
			uc.logger.Warn("task cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	tasks, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}

	if cacheable && uc.writes.Load() == seen {
		if err := uc.cache.SetAll(ctx, tasks); err != nil {
			uc.logger.Warn("task cache write failed", zap.Error(err))
		} else if uc.writes.Load() != seen {
			uc.invalidate(ctx)
		}
	}
	return tasks, nil
}

func (uc *UseCase) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, id)
}

// CreateTask stores a new task. The client-chosen id is kept; a missing id,
// category or priority is filled in, but an empty title is rejected.
func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(task.Title) == "" {
		return nil, domain.ErrTitleRequired
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Category == "" {
		task.Category = domain.CategoryToDo
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityLow
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeConflict) {
			return nil, err
		}
		task.Touch(uc.now())
		if !uc.shouldBuffer(ctx, usecase.OperationCreate, task) {
			return nil, err
		}
		created = task
	}

	uc.afterWrite(ctx, created.ID, domain.EventCreated, created)
	return created, nil
}

// UpdateTask applies patch to the stored task and returns the full result.
func (uc *UseCase) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.IsEmpty() {
		return nil, domain.ErrEmptyPatch
	}

	current, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := patch.Apply(*current, uc.now())
	if err != nil {
		return nil, err
	}
	updated.Touch(uc.now())

	if err := uc.tasks.Update(ctx, &updated); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, err
		}
		if !uc.shouldBuffer(ctx, usecase.OperationUpdate, &updated) {
			return nil, err
		}
	}

	name := domain.EventUpdated
	if current.Category != domain.CategoryTimeout && updated.Category == domain.CategoryTimeout {
		name = domain.EventTimedOut
	}
	uc.afterWrite(ctx, id, name, patch)
	return &updated, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, id string) error {
	if err := uc.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return err
		}
		if !uc.shouldBuffer(ctx, usecase.OperationDelete, &domain.Task{ID: id}) {
			return err
		}
	}
	uc.afterWrite(ctx, id, domain.EventDeleted, nil)
	return nil
}

// TaskEvents returns the recorded history of a task.
func (uc *UseCase) TaskEvents(ctx context.Context, id string) ([]domain.TaskEvent, error) {
	if uc.events == nil {
		return []domain.TaskEvent{}, nil
	}
	return uc.events.ListByTask(ctx, id, maxEvents)
}

// TimeOutOverdue moves every overdue task to Timeout and reports how many moved.
func (uc *UseCase) TimeOutOverdue(ctx context.Context) (int, error) {
	overdue, err := uc.tasks.ListOverdue(ctx, uc.now())
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, t := range overdue {
		if _, err := uc.UpdateTask(ctx, t.ID, domain.CategoryPatch(domain.CategoryTimeout)); err != nil {
			uc.logger.Warn("failed to time out task", zap.String("task_id", t.ID), zap.Error(err))
			continue
		}
		moved++
	}
	return moved, nil
}

// afterWrite drops the cached list and records the change. Both are best effort.
func (uc *UseCase) afterWrite(ctx context.Context, taskID, name string, payload interface{}) {
	uc.writes.Add(1)
	uc.invalidate(ctx)
	if uc.events == nil {
		return
	}

	event := domain.TaskEvent{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Name:      name,
		CreatedAt: uc.now(),
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			event.Payload = raw
		}
	}
	if err := uc.events.Append(ctx, event); err != nil {
		if uc.buffer != nil {
			if bufErr := uc.buffer.BufferEvent(ctx, event); bufErr == nil {
				return
			}
		}
		uc.logger.Warn("failed to record task event", zap.String("task_id", taskID), zap.String("event", name), zap.Error(err))
	}
}

func (uc *UseCase) invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.logger.Warn("task cache invalidation failed", zap.Error(err))
	}
}

func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, task *domain.Task) bool {
	if uc.buffer == nil {
		return false
	}
	if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
		uc.logger.Error("failed to buffer task operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	uc.logger.Warn("task operation buffered", zap.String("operation", operation), zap.String("task_id", task.ID))
	return true
}
