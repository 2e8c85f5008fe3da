// Package testutil provides in-memory fakes shared by package tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/store"
)

// FakeRemote is an in-memory store.Remote. Tasks keep insertion order.
type FakeRemote struct {
	mu    sync.Mutex
	tasks []domain.Task
	now   func() time.Time

	// Error injection
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// AssignID, when set, replaces the client id on create the way a backend
	// that owns identity would.
	AssignID func(domain.Task) string

	// History is returned by Events, keyed by task id.
	History map[string][]domain.TaskEvent

	Calls []string
}

// NewFakeRemote creates an empty fake backend.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{now: time.Now}
}

// Seed stores tasks directly, bypassing the create path.
func (f *FakeRemote) Seed(tasks ...domain.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, tasks...)
}

// Stored returns a copy of the backend's tasks.
func (f *FakeRemote) Stored() []domain.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Task(nil), f.tasks...)
}

// List implements store.Remote.
func (f *FakeRemote) List(ctx context.Context) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]domain.Task(nil), f.tasks...), nil
}

// Create implements store.Remote.
func (f *FakeRemote) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "create")
	if f.CreateErr != nil {
		return domain.Task{}, f.CreateErr
	}
	if f.AssignID != nil {
		task.ID = f.AssignID(task)
	}
	task.Touch(f.now())
	f.tasks = append(f.tasks, task)
	return task, nil
}

// Update implements store.Remote.
func (f *FakeRemote) Update(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "update")
	if f.UpdateErr != nil {
		return domain.Task{}, f.UpdateErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID != id {
			continue
		}
		updated, err := patch.Apply(f.tasks[i], f.now())
		if err != nil {
			return domain.Task{}, err
		}
		updated.Touch(f.now())
		f.tasks[i] = updated
		return updated, nil
	}
	return domain.Task{}, domain.ErrTaskNotFound
}

// Delete implements store.Remote.
func (f *FakeRemote) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "delete")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return domain.ErrTaskNotFound
}

// Events returns the seeded history for id.
func (f *FakeRemote) Events(ctx context.Context, id string) ([]domain.TaskEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "events")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]domain.TaskEvent(nil), f.History[id]...), nil
}

var _ store.Remote = (*FakeRemote)(nil)

// Recorder is a store.Notifier that keeps every notification.
type Recorder struct {
	mu    sync.Mutex
	items []store.Notification
}

// Notify implements store.Notifier.
func (r *Recorder) Notify(n store.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns the notifications received so far.
func (r *Recorder) All() []store.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]store.Notification(nil), r.items...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (store.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return store.Notification{}, false
	}
	return r.items[len(r.items)-1], true
}
