package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/internal/testutil"
	"github.com/fastygo/taskboard/usecase"
)

type staticHealth bool

func (h staticHealth) IsOnline() bool { return bool(h) }

func openBuffer(t *testing.T) *buffer.Store {
	t.Helper()
	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), "")
	if err != nil {
		t.Fatalf("buffer.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBufferBridgeWritesThroughWhenOnline(t *testing.T) {
	store := openBuffer(t)
	repo := testutil.NewTaskRepo()
	events := &testutil.EventRepo{}
	processor := NewBufferProcessor(store, staticHealth(true), repo, events, nil, ProcessorConfig{})
	bridge := NewBufferBridge(processor)
	ctx := context.Background()

	task := &domain.Task{ID: "a", Title: "A", Category: domain.CategoryToDo, Priority: domain.PriorityLow}
	if err := bridge.BufferTask(ctx, usecase.OperationCreate, task); err != nil {
		t.Fatalf("BufferTask: %v", err)
	}
	if err := bridge.BufferEvent(ctx, domain.TaskEvent{ID: "e1", TaskID: "a", Name: domain.EventCreated}); err != nil {
		t.Fatalf("BufferEvent: %v", err)
	}

	if len(repo.Stored()) != 1 {
		t.Errorf("stored tasks = %d, want 1", len(repo.Stored()))
	}
	if names := events.Names("a"); len(names) != 1 {
		t.Errorf("events = %v, want one", names)
	}
	if processor.Size() != 0 {
		t.Errorf("buffer size = %d, want 0", processor.Size())
	}
}

func TestBufferProcessorQueuesOfflineAndDrainsInOrder(t *testing.T) {
	store := openBuffer(t)
	repo := testutil.NewTaskRepo()
	health := staticHealth(false)
	processor := NewBufferProcessor(store, &health, repo, nil, nil, ProcessorConfig{MaxRetries: 2})
	bridge := NewBufferBridge(processor)
	ctx := context.Background()

	task := domain.Task{ID: "a", Title: "A", Category: domain.CategoryToDo, Priority: domain.PriorityLow}
	moved := task
	moved.Category = domain.CategoryDone

	// Enqueue the update first; the create must still replay before it.
	if err := bridge.BufferTask(ctx, usecase.OperationUpdate, &moved); err != nil {
		t.Fatalf("BufferTask update: %v", err)
	}
	if err := bridge.BufferTask(ctx, usecase.OperationCreate, &task); err != nil {
		t.Fatalf("BufferTask create: %v", err)
	}
	if processor.Size() != 2 {
		t.Fatalf("buffer size = %d, want 2", processor.Size())
	}

	if err := processor.Drain(ctx); err != nil {
		t.Fatalf("Drain offline: %v", err)
	}
	if processor.Size() != 2 {
		t.Fatalf("offline drain touched the buffer, size = %d", processor.Size())
	}

	health = true
	if err := processor.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if processor.Size() != 0 {
		t.Errorf("buffer size after drain = %d, want 0", processor.Size())
	}
	stored := repo.Stored()
	if len(stored) != 1 || stored[0].Category != domain.CategoryDone {
		t.Errorf("stored = %+v, want task a in Done", stored)
	}
}

func TestBufferProcessorBuriesAfterMaxRetries(t *testing.T) {
	store := openBuffer(t)
	repo := testutil.NewTaskRepo()
	repo.UpdateErr = errors.New("still failing")
	health := staticHealth(false)
	processor := NewBufferProcessor(store, &health, repo, nil, nil, ProcessorConfig{MaxRetries: 2})

	task := &domain.Task{ID: "a", Title: "A", Category: domain.CategoryToDo, Priority: domain.PriorityLow}
	if err := NewBufferBridge(processor).BufferTask(context.Background(), usecase.OperationUpdate, task); err != nil {
		t.Fatalf("BufferTask: %v", err)
	}

	health = true
	_ = processor.Drain(context.Background())
	if processor.Size() != 1 {
		t.Fatalf("size after first failure = %d, want 1", processor.Size())
	}
	_ = processor.Drain(context.Background())
	if processor.Size() != 0 {
		t.Errorf("size after max retries = %d, want 0", processor.Size())
	}
	if dead, _ := store.DeadCount(); dead != 1 {
		t.Errorf("dead items = %d, want 1", dead)
	}
}

func TestBufferProcessorBuriesUndecodableItems(t *testing.T) {
	store := openBuffer(t)
	health := staticHealth(true)
	processor := NewBufferProcessor(store, &health, testutil.NewTaskRepo(), nil, nil, ProcessorConfig{MaxRetries: 5})

	if err := store.Enqueue(buffer.Item{TaskID: "a", Entity: buffer.EntityTask, Operation: buffer.OperationCreate, Data: []byte(`"not a task"`)}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := processor.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	dead, err := store.Dead()
	if err != nil || len(dead) != 1 {
		t.Fatalf("Dead() = (%v, %v), want one item", dead, err)
	}
	if dead[0].Retries != 1 {
		t.Errorf("retries = %d, want buried on first attempt", dead[0].Retries)
	}
}

func TestBufferBridgeRejectsNil(t *testing.T) {
	bridge := NewBufferBridge(nil)
	if err := bridge.BufferTask(context.Background(), usecase.OperationCreate, nil); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Errorf("err = %v, want ErrInvalidPayload", err)
	}
}

type sweepFunc func(ctx context.Context) (int, error)

func (f sweepFunc) TimeOutOverdue(ctx context.Context) (int, error) { return f(ctx) }

func TestTimeoutSweeperSkipsWhenOffline(t *testing.T) {
	calls := 0
	uc := sweepFunc(func(context.Context) (int, error) { calls++; return 2, nil })

	offline := NewTimeoutSweeper(uc, staticHealth(false), time.Minute, nil)
	if moved, err := offline.Sweep(context.Background()); moved != 0 || err != nil || calls != 0 {
		t.Errorf("offline sweep = (%d, %v), calls = %d", moved, err, calls)
	}

	online := NewTimeoutSweeper(uc, staticHealth(true), time.Minute, nil)
	if moved, err := online.Sweep(context.Background()); moved != 2 || err != nil || calls != 1 {
		t.Errorf("online sweep = (%d, %v), calls = %d", moved, err, calls)
	}
}

func TestTimeoutSweeperReportsErrors(t *testing.T) {
	boom := errors.New("db gone")
	s := NewTimeoutSweeper(sweepFunc(func(context.Context) (int, error) { return 0, boom }), nil, 0, nil)
	if _, err := s.Sweep(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestTimeoutSweeperStartStop(t *testing.T) {
	s := NewTimeoutSweeper(sweepFunc(func(context.Context) (int, error) { return 0, nil }), nil, time.Second, nil)
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
