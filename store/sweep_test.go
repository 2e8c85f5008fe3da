package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/testutil"
	"github.com/fastygo/taskboard/store"
)

func TestSweepMovesOverdueTaskToTimeout(t *testing.T) {
	now := baseTime
	overdue := domain.Task{
		ID:         "late",
		Title:      "Late",
		Category:   domain.CategoryToDo,
		Priority:   domain.PriorityHigh,
		Deadline:   now.Add(-10 * time.Millisecond),
		DurationMS: 5,
	}
	untracked := domain.Task{
		ID:       "untracked",
		Title:    "No duration",
		Category: domain.CategoryToDo,
		Priority: domain.PriorityLow,
		Deadline: now.Add(-time.Hour),
	}
	remote := testutil.NewFakeRemote()
	remote.Seed(overdue, untracked)
	s, _ := newStore(t, remote, now)
	if err := s.FetchTasks(context.Background()); err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	before := s.ExpiredTasks()

	moved, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if moved != 1 {
		t.Errorf("moved = %d, want 1", moved)
	}

	got, _ := s.Find("late")
	if got.Category != domain.CategoryTimeout {
		t.Errorf("late category = %q, want Timeout", got.Category)
	}
	if s.ExpiredTasks() != before+1 {
		t.Errorf("ExpiredTasks() = %d, want %d", s.ExpiredTasks(), before+1)
	}
	if kept, _ := s.Find("untracked"); kept.Category != domain.CategoryToDo {
		t.Errorf("untracked task was reclassified to %q", kept.Category)
	}

	// The backend holds the new category too, so a refetch keeps it.
	if err := s.FetchTasks(context.Background()); err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	if got, _ := s.Find("late"); got.Category != domain.CategoryTimeout {
		t.Errorf("category after refetch = %q, want Timeout", got.Category)
	}
}

func TestSweepSkipsFutureAndDoneTasks(t *testing.T) {
	now := baseTime
	remote := testutil.NewFakeRemote()
	remote.Seed(
		mustTask(t, "future", "F", domain.CategoryOnProgress, now.Add(time.Hour)),
		domain.Task{ID: "done", Title: "D", Category: domain.CategoryDone, Priority: domain.PriorityLow, Deadline: now.Add(-time.Hour), DurationMS: 10},
	)
	s, _ := newStore(t, remote, now)
	_ = s.FetchTasks(context.Background())

	moved, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if moved != 0 {
		t.Errorf("moved = %d, want 0", moved)
	}
	for _, call := range remote.Calls {
		if call == "update" {
			t.Errorf("sweep should not call update, calls = %v", remote.Calls)
		}
	}
}

func TestSweepFailureKeepsLocalCategory(t *testing.T) {
	now := baseTime
	remote := testutil.NewFakeRemote()
	remote.Seed(domain.Task{ID: "late", Title: "L", Category: domain.CategoryToDo, Priority: domain.PriorityLow, Deadline: now.Add(-time.Minute), DurationMS: 1})
	s, _ := newStore(t, remote, now)
	_ = s.FetchTasks(context.Background())

	remote.UpdateErr = errors.New("backend down")
	moved, err := s.Sweep(context.Background())
	if err == nil {
		t.Fatal("expected sweep error")
	}
	if moved != 0 {
		t.Errorf("moved = %d, want 0", moved)
	}
	if got, _ := s.Find("late"); got.Category != domain.CategoryToDo {
		t.Errorf("category = %q, want To Do", got.Category)
	}

	remote.UpdateErr = nil
	if moved, err := s.Sweep(context.Background()); err != nil || moved != 1 {
		t.Errorf("retry sweep = (%d, %v), want (1, nil)", moved, err)
	}
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	now := baseTime
	remote := testutil.NewFakeRemote()
	remote.Seed(domain.Task{ID: "late", Title: "L", Category: domain.CategoryOnProgress, Priority: domain.PriorityLow, Deadline: now.Add(-time.Minute), DurationMS: 1})
	s := store.New(remote, store.WithClock(func() time.Time { return now }))
	_ = s.FetchTasks(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan int, 8)
	done := make(chan struct{})
	go func() {
		s.RunSweeper(ctx, 5*time.Millisecond, func(moved int) {
			select {
			case ticks <- moved:
			default:
			}
		})
		close(done)
	}()

	select {
	case moved := <-ticks:
		if moved != 1 {
			t.Errorf("first tick moved %d, want 1", moved)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not tick")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}

	if s.ExpiredTasks() != 1 {
		t.Errorf("ExpiredTasks() = %d, want 1", s.ExpiredTasks())
	}
}

func TestSweepLeavesTaskAddedWithoutDeadline(t *testing.T) {
	now := baseTime
	remote := testutil.NewFakeRemote()
	s, _ := newStore(t, remote, now)

	task, err := domain.NewTask("nd", "No deadline", "", "", "", time.Time{}, now)
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	if err := s.AddTask(context.Background(), *task); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	moved, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if moved != 0 {
		t.Errorf("moved = %d, want 0", moved)
	}
	if got, _ := s.Find("nd"); got.Category != domain.CategoryToDo {
		t.Errorf("category = %q, want To Do", got.Category)
	}
	if s.ExpiredTasks() != 0 {
		t.Errorf("ExpiredTasks() = %d, want 0", s.ExpiredTasks())
	}
}

// movingRemote completes a task on the first timeout move it sees, standing in
// for a user acting while a sweep is in flight.
type movingRemote struct {
	*testutil.FakeRemote
	store    *store.Store
	complete string
}

func (m *movingRemote) Update(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	if m.complete != "" && id != m.complete {
		target := m.complete
		m.complete = ""
		if err := m.store.UpdateTask(ctx, target, domain.CategoryPatch(domain.CategoryDone)); err != nil {
			return domain.Task{}, err
		}
	}
	return m.FakeRemote.Update(ctx, id, patch)
}

func TestSweepSkipsTaskCompletedMidSweep(t *testing.T) {
	now := baseTime
	fake := testutil.NewFakeRemote()
	fake.Seed(
		domain.Task{ID: "first", Title: "First", Category: domain.CategoryToDo, Priority: domain.PriorityLow, Deadline: now.Add(-time.Hour), DurationMS: 1},
		domain.Task{ID: "second", Title: "Second", Category: domain.CategoryToDo, Priority: domain.PriorityLow, Deadline: now.Add(-time.Hour), DurationMS: 1},
	)
	remote := &movingRemote{FakeRemote: fake, complete: "second"}
	s := store.New(remote, store.WithClock(func() time.Time { return now }))
	remote.store = s
	if err := s.FetchTasks(context.Background()); err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}

	moved, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if moved != 1 {
		t.Errorf("moved = %d, want 1", moved)
	}
	if got, _ := s.Find("second"); got.Category != domain.CategoryDone {
		t.Errorf("second category = %q, want Done", got.Category)
	}
	if got, _ := s.Find("first"); got.Category != domain.CategoryTimeout {
		t.Errorf("first category = %q, want Timeout", got.Category)
	}
}
