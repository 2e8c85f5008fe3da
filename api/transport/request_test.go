package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/fastygo/taskboard/domain"
)

func TestTaskRequestToTask(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	clientDuration := int64(1234)
	staleDuration := int64(-9223372036854)

	tests := []struct {
		name         string
		req          TaskRequest
		wantCategory domain.Category
		wantPriority domain.Priority
		wantDuration int64
		wantErr      error
	}{
		{
			name:         "derives duration from deadline",
			req:          TaskRequest{Title: "Plan", Category: "on progress", Priority: "HIGH", Deadline: "2026-05-01T10:00:00Z"},
			wantCategory: domain.CategoryOnProgress,
			wantPriority: domain.PriorityHigh,
			wantDuration: time.Hour.Milliseconds(),
		},
		{
			name:         "keeps client duration snapshot",
			req:          TaskRequest{Title: "Plan", Deadline: "2026-05-01T10:00:00Z", Duration: &clientDuration},
			wantDuration: 1234,
		},
		{
			name:         "no deadline means untracked",
			req:          TaskRequest{Title: "Plan"},
			wantDuration: 0,
		},
		{
			name:         "duration without deadline is dropped",
			req:          TaskRequest{Title: "Plan", Deadline: "0001-01-01T00:00:00Z", Duration: &staleDuration},
			wantDuration: 0,
		},
		{
			name:    "unknown category",
			req:     TaskRequest{Title: "Plan", Category: "Backlog"},
			wantErr: domain.ErrInvalidCategory,
		},
		{
			name:    "unknown priority",
			req:     TaskRequest{Title: "Plan", Priority: "Urgent"},
			wantErr: domain.ErrInvalidPriority,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task, err := tc.req.ToTask(now)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
					t.Errorf("err = %v, want INVALID domain error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToTask: %v", err)
			}
			if task.Category != tc.wantCategory {
				t.Errorf("Category = %q, want %q", task.Category, tc.wantCategory)
			}
			if task.Priority != tc.wantPriority {
				t.Errorf("Priority = %q, want %q", task.Priority, tc.wantPriority)
			}
			if task.DurationMS != tc.wantDuration {
				t.Errorf("DurationMS = %d, want %d", task.DurationMS, tc.wantDuration)
			}
		})
	}
}

func TestTaskRequestRejectsBadDeadline(t *testing.T) {
	_, err := TaskRequest{Title: "x", Deadline: "tomorrow"}.ToTask(time.Now())
	if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("err = %v, want INVALID", err)
	}
}

func TestTaskPatchRequestToPatch(t *testing.T) {
	category := "done"
	deadline := "2026-05-02T00:00:00.5Z"
	patch, err := TaskPatchRequest{Category: &category, Deadline: &deadline}.ToPatch()
	if err != nil {
		t.Fatalf("ToPatch: %v", err)
	}
	if patch.Category == nil || *patch.Category != domain.CategoryDone {
		t.Errorf("Category = %v, want Done", patch.Category)
	}
	if patch.Deadline == nil || patch.Deadline.Nanosecond() != 500_000_000 {
		t.Errorf("Deadline = %v", patch.Deadline)
	}
	if patch.Title != nil || patch.Priority != nil {
		t.Errorf("unexpected fields in patch: %+v", patch)
	}

	blank := "  "
	if _, err := (TaskPatchRequest{Title: &blank}).ToPatch(); !errors.Is(err, domain.ErrTitleRequired) {
		t.Errorf("blank title err = %v, want ErrTitleRequired", err)
	}

	if patch, err := (TaskPatchRequest{}).ToPatch(); err != nil || !patch.IsEmpty() {
		t.Errorf("empty request = (%+v, %v), want empty patch", patch, err)
	}
}
