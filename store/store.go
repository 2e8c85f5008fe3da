// Package store keeps the board's in-memory copy of the task list in step with
// the backend and derives the board totals from it.
//
// A Store is built once per session and handed to whatever renders the board.
// Every operation goes to the backend first; local state only changes once the
// backend has answered, and a failure leaves it exactly as it was. Failures are
// reported to the user through the Notifier and also returned to the caller.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
)

// Remote is the backend contract the store mirrors.
type Remote interface {
	List(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, task domain.Task) (domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
	Delete(ctx context.Context, id string) error
}

// User-facing messages.
const (
	MsgCreated      = "Task created successfully"
	MsgUpdated      = "Task updated successfully"
	MsgDeleted      = "Task deleted successfully"
	MsgFetchFailed  = "Failed to load tasks"
	MsgCreateFailed = "Failed to create task"
	MsgUpdateFailed = "Failed to update task"
	MsgDeleteFailed = "Failed to delete task"
)

// Store owns the session's task list and its derived counts.
type Store struct {
	remote   Remote
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.RWMutex
	tasks  []domain.Task
	counts domain.Counts
}

// Option customises a Store.
type Option func(*Store)

// WithNotifier sets where success and failure messages go.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now, mainly for the timeout sweep in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store backed by remote. Call FetchTasks to populate it.
func New(remote Remote, opts ...Option) *Store {
	s := &Store{
		remote: remote,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = LogNotifier(s.logger)
	}
	return s
}

// FetchTasks replaces the local list with the backend's.
func (s *Store) FetchTasks(ctx context.Context) error {
	tasks, err := s.remote.List(ctx)
	if err != nil {
		s.logger.Error("error fetching tasks", zap.Error(err))
		s.fail(err, MsgFetchFailed)
		return err
	}

	s.mu.Lock()
	s.tasks = append([]domain.Task(nil), tasks...)
	s.counts = domain.CountTasks(s.tasks)
	s.mu.Unlock()
	return nil
}

// AddTask sends a fully populated task to the backend and appends the
// backend's copy. Nothing is inserted locally before the backend answers.
func (s *Store) AddTask(ctx context.Context, task domain.Task) error {
	if err := task.Validate(); err != nil {
		s.fail(err, MsgCreateFailed)
		return err
	}

	created, err := s.remote.Create(ctx, task)
	if err != nil {
		s.logger.Warn("error adding task", zap.String("task_id", task.ID), zap.Error(err))
		s.fail(err, MsgCreateFailed)
		return err
	}

	s.commit(func(tasks []domain.Task) []domain.Task {
		if i := indexOf(tasks, created.ID); i >= 0 {
			tasks[i] = created
			return tasks
		}
		return append(tasks, created)
	})
	s.notify(LevelSuccess, MsgCreated)
	return nil
}

// UpdateTask sends a partial update and swaps in the backend's full copy. If
// the task is no longer held locally the backend answer is dropped silently.
func (s *Store) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) error {
	if patch.IsEmpty() {
		s.fail(domain.ErrEmptyPatch, MsgUpdateFailed)
		return domain.ErrEmptyPatch
	}

	updated, err := s.remote.Update(ctx, id, patch)
	if err != nil {
		s.logger.Warn("error updating task", zap.String("task_id", id), zap.Error(err))
		s.fail(err, MsgUpdateFailed)
		return err
	}

	s.replace(id, updated)
	s.notify(LevelSuccess, MsgUpdated)
	return nil
}

// DeleteTask removes a task from the backend and then from the local list.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := s.remote.Delete(ctx, id); err != nil {
		s.logger.Warn("error deleting task", zap.String("task_id", id), zap.Error(err))
		s.fail(err, MsgDeleteFailed)
		return err
	}

	s.commit(func(tasks []domain.Task) []domain.Task {
		kept := tasks[:0]
		for _, t := range tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		return kept
	})
	s.notify(LevelSuccess, MsgDeleted)
	return nil
}

// UpdateTaskCounts recomputes and stores the totals for tasks.
func (s *Store) UpdateTaskCounts(tasks []domain.Task) domain.Counts {
	counts := domain.CountTasks(tasks)
	s.mu.Lock()
	s.counts = counts
	s.mu.Unlock()
	return counts
}

// Tasks returns a copy of the current list.
func (s *Store) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Task(nil), s.tasks...)
}

// Counts returns the current totals.
func (s *Store) Counts() domain.Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts
}

func (s *Store) TotalTasks() int     { return s.Counts().Total }
func (s *Store) ActiveTasks() int    { return s.Counts().Active }
func (s *Store) CompletedTasks() int { return s.Counts().Completed }
func (s *Store) ExpiredTasks() int   { return s.Counts().Expired }

// Find returns the task with id, if held locally.
func (s *Store) Find(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.tasks, id); i >= 0 {
		return s.tasks[i], true
	}
	return domain.Task{}, false
}

// commit applies fn to the current list and refreshes the counts. The list is
// read at commit time, so a change made while a request was in flight is kept.
func (s *Store) commit(fn func([]domain.Task) []domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = fn(s.tasks)
	s.counts = domain.CountTasks(s.tasks)
}

func (s *Store) replace(id string, updated domain.Task) {
	s.commit(func(tasks []domain.Task) []domain.Task {
		if i := indexOf(tasks, id); i >= 0 {
			tasks[i] = updated
		}
		return tasks
	})
}

func (s *Store) notify(level Level, message string) {
	s.notifier.Notify(Notification{Level: level, Message: message})
}

func (s *Store) fail(err error, fallback string) {
	s.notify(LevelError, UserMessage(err, fallback))
}

func indexOf(tasks []domain.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// messenger is satisfied by backend errors that carry their own user-facing text.
type messenger interface {
	error
	UserMessage() string
}

// UserMessage picks the text to show for err: the backend's own message when
// it sent one, a local validation message, or fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var m messenger
	if errors.As(err, &m) {
		if msg := m.UserMessage(); msg != "" {
			return msg
		}
		return fallback
	}
	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Message != "" {
		return dErr.Message
	}
	return fallback
}
