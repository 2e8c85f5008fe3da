package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/internal/testutil"
)

var testNow = time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

type result struct {
	out    string
	errOut string
	err    error
}

func runBoardCmd(t *testing.T, remote *testutil.FakeRemote, args ...string) result {
	t.Helper()
	a := newApp()
	a.loadConfig = func() (*config.BoardConfig, error) {
		return &config.BoardConfig{
			APIURL:        "http://board.test/api",
			APITimeout:    time.Second,
			SweepInterval: time.Minute,
			Logger:        config.LoggerConfig{Level: "fatal", Encoding: "console"},
		}, nil
	}
	a.newBackend = func(*config.BoardConfig, *zap.Logger) backend { return remote }
	a.now = func() time.Time { return testNow }
	next := 0
	a.newID = func() string {
		next++
		return fmt.Sprintf("task-%d", next)
	}

	var out, errOut bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func seeded() *testutil.FakeRemote {
	remote := testutil.NewFakeRemote()
	remote.Seed(
		domain.Task{ID: "aaaa1111", Title: "Write plan", Category: domain.CategoryToDo, Priority: domain.PriorityHigh},
		domain.Task{ID: "bbbb2222", Title: "Review PR", Description: "backend changes", Category: domain.CategoryOnProgress, Priority: domain.PriorityMedium},
		domain.Task{ID: "cccc3333", Title: "Ship it", Category: domain.CategoryDone, Priority: domain.PriorityLow},
	)
	return remote
}

func TestBoardShowsColumnsAndCounts(t *testing.T) {
	res := runBoardCmd(t, seeded())
	if res.err != nil {
		t.Fatalf("board: %v (%s)", res.err, res.errOut)
	}
	for _, want := range []string{"To Do (1)", "On Progress (1)", "Done (1)", "Timeout (0)", "Write plan", "Completed", "Total 3", "Active 2", "Completed 1", "Expired 0"} {
		if !strings.Contains(res.out, want) {
			t.Errorf("output missing %q:\n%s", want, res.out)
		}
	}

	if alias := runBoardCmd(t, seeded(), "board"); alias.out != res.out {
		t.Errorf("board alias output differs:\n%s", alias.out)
	}
}

func TestListFilters(t *testing.T) {
	res := runBoardCmd(t, seeded(), "list", "--search", "BACKEND")
	if res.err != nil {
		t.Fatalf("list: %v", res.err)
	}
	if !strings.Contains(res.out, "Review PR") || strings.Contains(res.out, "Write plan") {
		t.Errorf("search output:\n%s", res.out)
	}

	res = runBoardCmd(t, seeded(), "list", "-c", "done")
	if !strings.Contains(res.out, "Ship it") || strings.Contains(res.out, "Review PR") {
		t.Errorf("category output:\n%s", res.out)
	}

	if res := runBoardCmd(t, seeded(), "list", "-c", "someday"); !errors.Is(res.err, domain.ErrInvalidCategory) {
		t.Errorf("bad category err = %v", res.err)
	}
}

func TestAddCreatesTaskWithDefaults(t *testing.T) {
	remote := testutil.NewFakeRemote()
	res := runBoardCmd(t, remote, "add", "--deadline", "90m", "-p", "high")
	if res.err != nil {
		t.Fatalf("add: %v (%s)", res.err, res.errOut)
	}
	if !strings.Contains(res.out, "Task created successfully") {
		t.Errorf("out = %q", res.out)
	}

	stored := remote.Stored()
	if len(stored) != 1 {
		t.Fatalf("stored = %v", stored)
	}
	got := stored[0]
	if got.ID != "task-1" || got.Title != domain.DefaultTitle || got.Category != domain.CategoryToDo || got.Priority != domain.PriorityHigh {
		t.Errorf("stored task = %+v", got)
	}
	if got.DurationMS != (90 * time.Minute).Milliseconds() {
		t.Errorf("DurationMS = %d, want 90m", got.DurationMS)
	}
}

func TestAddAndEditWithoutDeadlineLeaveTaskUntracked(t *testing.T) {
	remote := testutil.NewFakeRemote()
	remote.Seed(domain.Task{ID: "soon1111", Title: "Soon", Category: domain.CategoryToDo, Priority: domain.PriorityLow, Deadline: testNow.Add(time.Hour), DurationMS: time.Hour.Milliseconds()})

	if res := runBoardCmd(t, remote, "add", "Someday"); res.err != nil {
		t.Fatalf("add: %v (%s)", res.err, res.errOut)
	}
	if res := runBoardCmd(t, remote, "edit", "soon", "--deadline", ""); res.err != nil {
		t.Fatalf("edit: %v (%s)", res.err, res.errOut)
	}

	later := testNow.Add(48 * time.Hour)
	stored := remote.Stored()
	if len(stored) != 2 {
		t.Fatalf("stored = %+v", stored)
	}
	for _, task := range stored {
		if task.DurationMS != 0 {
			t.Errorf("%s DurationMS = %d, want 0", task.Title, task.DurationMS)
		}
		if task.Overdue(later) {
			t.Errorf("%s reported overdue without a deadline", task.Title)
		}
	}
}

func TestAddReportsBackendMessage(t *testing.T) {
	remote := testutil.NewFakeRemote()
	remote.CreateErr = domain.ErrTitleRequired
	res := runBoardCmd(t, remote, "add", "x")

	var rep *reportedError
	if !errors.As(res.err, &rep) {
		t.Fatalf("err = %v, want reported error", res.err)
	}
	if !strings.Contains(res.errOut, "error: Title required") {
		t.Errorf("errOut = %q", res.errOut)
	}
}

func TestMoveEditDeleteByPrefix(t *testing.T) {
	remote := seeded()

	if res := runBoardCmd(t, remote, "move", "aaaa", "on progress"); res.err != nil {
		t.Fatalf("move: %v (%s)", res.err, res.errOut)
	}
	if res := runBoardCmd(t, remote, "edit", "bbbb", "--title", "Review PR #2", "--priority", "low"); res.err != nil {
		t.Fatalf("edit: %v (%s)", res.err, res.errOut)
	}
	if res := runBoardCmd(t, remote, "rm", "cccc3333"); res.err != nil {
		t.Fatalf("delete: %v (%s)", res.err, res.errOut)
	}

	byID := map[string]domain.Task{}
	for _, task := range remote.Stored() {
		byID[task.ID] = task
	}
	if byID["aaaa1111"].Category != domain.CategoryOnProgress {
		t.Errorf("moved task = %+v", byID["aaaa1111"])
	}
	if got := byID["bbbb2222"]; got.Title != "Review PR #2" || got.Priority != domain.PriorityLow || got.Description != "backend changes" {
		t.Errorf("edited task = %+v", got)
	}
	if _, ok := byID["cccc3333"]; ok {
		t.Error("deleted task still stored")
	}
}

func TestResolveIDErrors(t *testing.T) {
	remote := seeded()
	remote.Seed(domain.Task{ID: "aaaa9999", Title: "Twin", Category: domain.CategoryToDo, Priority: domain.PriorityLow})

	if res := runBoardCmd(t, remote, "move", "aaaa", "done"); res.err == nil || !strings.Contains(res.err.Error(), "matches 2 tasks") {
		t.Errorf("ambiguous prefix err = %v", res.err)
	}
	if res := runBoardCmd(t, remote, "delete", "zzzz"); res.err == nil || !strings.Contains(res.err.Error(), "no task matches") {
		t.Errorf("unknown id err = %v", res.err)
	}
}

func TestEditWithoutFlagsFails(t *testing.T) {
	res := runBoardCmd(t, seeded(), "edit", "aaaa1111")
	if !errors.Is(res.err, domain.ErrEmptyPatch) {
		t.Errorf("err = %v, want ErrEmptyPatch", res.err)
	}
}

func TestHistory(t *testing.T) {
	remote := seeded()
	remote.History = map[string][]domain.TaskEvent{
		"aaaa1111": {
			{ID: "e1", TaskID: "aaaa1111", Name: domain.EventCreated, CreatedAt: testNow},
			{ID: "e2", TaskID: "aaaa1111", Name: domain.EventTimedOut, Payload: []byte(`{"category":"Timeout"}`), CreatedAt: testNow},
		},
	}
	res := runBoardCmd(t, remote, "history", "aaaa")
	if res.err != nil {
		t.Fatalf("history: %v", res.err)
	}
	for _, want := range []string{"EVENT", "created", "timed_out", `{"category":"Timeout"}`} {
		if !strings.Contains(res.out, want) {
			t.Errorf("history output missing %q:\n%s", want, res.out)
		}
	}
}

func TestFetchFailureIsReported(t *testing.T) {
	remote := testutil.NewFakeRemote()
	remote.ListErr = errors.New("connection refused")
	res := runBoardCmd(t, remote, "list")

	var rep *reportedError
	if !errors.As(res.err, &rep) {
		t.Fatalf("err = %v, want reported", res.err)
	}
	if !strings.Contains(res.errOut, "error: Failed to load tasks") {
		t.Errorf("errOut = %q", res.errOut)
	}
}

func TestWatchSweepsUntilCancelled(t *testing.T) {
	remote := testutil.NewFakeRemote()
	remote.Seed(domain.Task{ID: "late", Title: "Late", Category: domain.CategoryToDo, Priority: domain.PriorityLow, Deadline: testNow.Add(-time.Minute), DurationMS: 1})

	a := newApp()
	a.loadConfig = func() (*config.BoardConfig, error) {
		return &config.BoardConfig{APIURL: "http://board.test/api", SweepInterval: time.Minute, Logger: config.LoggerConfig{Level: "fatal"}}, nil
	}
	a.newBackend = func(*config.BoardConfig, *zap.Logger) backend { return remote }
	a.now = func() time.Time { return testNow }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out syncBuffer
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"watch", "--interval", "5ms"})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "moved 1 task(s) to Timeout") {
		if time.Now().After(deadline) {
			t.Fatalf("watch never swept:\n%s", out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	if got := remote.Stored()[0].Category; got != domain.CategoryTimeout {
		t.Errorf("category = %q, want Timeout", got)
	}
}

func TestParseDeadline(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", time.Time{}},
		{"2026-06-11T08:00:00Z", time.Date(2026, 6, 11, 8, 0, 0, 0, time.UTC)},
		{"2026-06-11", time.Date(2026, 6, 11, 23, 59, 59, 0, time.UTC)},
		{"2h", testNow.Add(2 * time.Hour)},
	}
	for _, tc := range tests {
		got, err := parseDeadline(tc.in, testNow)
		if err != nil {
			t.Errorf("parseDeadline(%q): %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("parseDeadline(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := parseDeadline("next week", testNow); err == nil {
		t.Error("expected error for free-form deadline")
	}
}
