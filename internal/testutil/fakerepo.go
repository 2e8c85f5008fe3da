package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

// TaskRepo is an in-memory repository.TaskRepository ordered by insertion.
type TaskRepo struct {
	mu    sync.Mutex
	tasks []domain.Task
	Now   func() time.Time

	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	ListCalls int
	// AfterList runs once a listing has been read, before it is returned.
	AfterList func()
}

func NewTaskRepo() *TaskRepo {
	return &TaskRepo{Now: time.Now}
}

// Seed stores tasks as-is.
func (r *TaskRepo) Seed(tasks ...domain.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, tasks...)
}

// Stored returns a copy of the held tasks.
func (r *TaskRepo) Stored() []domain.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Task(nil), r.tasks...)
}

func (r *TaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.index(id); i >= 0 {
		task := r.tasks[i]
		return &task, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (r *TaskRepo) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	out, err := r.list(filter)
	if err == nil && r.AfterList != nil {
		r.AfterList()
	}
	return out, err
}

func (r *TaskRepo) list(filter repository.TaskFilter) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ListCalls++
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	out := []domain.Task{}
	for _, t := range r.tasks {
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		out = append(out, t)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []domain.Task{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *TaskRepo) ListOverdue(ctx context.Context, now time.Time) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	var out []domain.Task
	for i := range r.tasks {
		if r.tasks[i].Overdue(now) {
			out = append(out, r.tasks[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func (r *TaskRepo) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return nil, r.CreateErr
	}
	if r.index(task.ID) >= 0 {
		return nil, domain.NewError(domain.ErrCodeConflict, "task already exists")
	}
	created := *task
	created.Touch(r.Now())
	r.tasks = append(r.tasks, created)
	return &created, nil
}

func (r *TaskRepo) Update(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	i := r.index(task.ID)
	if i < 0 {
		return domain.ErrTaskNotFound
	}
	task.UpdatedAt = r.Now()
	r.tasks[i] = *task
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	i := r.index(id)
	if i < 0 {
		return domain.ErrTaskNotFound
	}
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	return nil
}

func (r *TaskRepo) index(id string) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// EventRepo is an in-memory repository.EventRepository.
type EventRepo struct {
	mu        sync.Mutex
	events    []domain.TaskEvent
	AppendErr error
}

func (r *EventRepo) Append(ctx context.Context, event domain.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.AppendErr != nil {
		return r.AppendErr
	}
	r.events = append(r.events, event)
	return nil
}

func (r *EventRepo) ListByTask(ctx context.Context, taskID string, limit int) ([]domain.TaskEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.TaskEvent{}
	for _, e := range r.events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Names returns the event names recorded for taskID in order.
func (r *EventRepo) Names(taskID string) []string {
	events, _ := r.ListByTask(context.Background(), taskID, 0)
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	return names
}

// Cache is an in-memory repository.TaskCache.
type Cache struct {
	mu          sync.Mutex
	tasks       []domain.Task
	ok          bool
	GetErr      error
	Invalidated int
}

func (c *Cache) GetAll(ctx context.Context) ([]domain.Task, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.GetErr != nil {
		return nil, false, c.GetErr
	}
	if !c.ok {
		return nil, false, nil
	}
	return append([]domain.Task(nil), c.tasks...), true, nil
}

func (c *Cache) SetAll(ctx context.Context, tasks []domain.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append([]domain.Task(nil), tasks...)
	c.ok = true
	return nil
}

func (c *Cache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = nil
	c.ok = false
	c.Invalidated++
	return nil
}

// Warm reports whether the cache currently holds a list.
func (c *Cache) Warm() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ok
}

// Buffer records buffered writes instead of persisting them.
type Buffer struct {
	mu     sync.Mutex
	Tasks  []BufferedTask
	Events []domain.TaskEvent
	Err    error
}

// BufferedTask is one call to Buffer.BufferTask.
type BufferedTask struct {
	Operation string
	Task      domain.Task
}

func (b *Buffer) BufferTask(ctx context.Context, operation string, task *domain.Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	b.Tasks = append(b.Tasks, BufferedTask{Operation: operation, Task: *task})
	return nil
}

func (b *Buffer) BufferEvent(ctx context.Context, event domain.TaskEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	b.Events = append(b.Events, event)
	return nil
}

var (
	_ repository.TaskRepository  = (*TaskRepo)(nil)
	_ repository.EventRepository = (*EventRepo)(nil)
	_ repository.TaskCache       = (*Cache)(nil)
	_ usecase.OperationBuffer    = (*Buffer)(nil)
)
