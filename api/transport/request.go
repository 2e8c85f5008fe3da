package transport

import (
	"strings"
	"time"

	"github.com/fastygo/taskboard/domain"
)

// TaskRequest is the body of POST /api/tasks. Enum and time fields arrive as
// strings so a bad value can be reported instead of failing the whole decode.
type TaskRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Deadline    string `json:"deadline"`
	Duration    *int64 `json:"duration"`
}

// ToTask converts the request into a task. A missing duration is derived from
// the deadline against now; without a deadline the task is untracked.
func (r TaskRequest) ToTask(now time.Time) (*domain.Task, error) {
	task := &domain.Task{
		ID:          strings.TrimSpace(r.ID),
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
	}

	if r.Category != "" {
		category, err := domain.ParseCategory(r.Category)
		if err != nil {
			return nil, err
		}
		task.Category = category
	}
	if r.Priority != "" {
		priority, err := domain.ParsePriority(r.Priority)
		if err != nil {
			return nil, err
		}
		task.Priority = priority
	}

	deadline, err := parseDeadline(r.Deadline)
	if err != nil {
		return nil, err
	}
	switch {
	case deadline.IsZero():
	case r.Duration != nil:
		task.Deadline = deadline
		task.DurationMS = *r.Duration
	default:
		task.SetDeadline(deadline, now)
	}
	return task, nil
}

// TaskPatchRequest is the body of PUT /api/tasks/{id}. Absent fields are left alone.
type TaskPatchRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
	Deadline    *string `json:"deadline"`
}

// ToPatch converts the request into a domain patch.
func (r TaskPatchRequest) ToPatch() (domain.TaskPatch, error) {
	var patch domain.TaskPatch
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return patch, domain.ErrTitleRequired
		}
		patch.Title = &title
	}
	patch.Description = r.Description
	if r.Category != nil {
		category, err := domain.ParseCategory(*r.Category)
		if err != nil {
			return patch, err
		}
		patch.Category = &category
	}
	if r.Priority != nil {
		priority, err := domain.ParsePriority(*r.Priority)
		if err != nil {
			return patch, err
		}
		patch.Priority = &priority
	}
	if r.Deadline != nil {
		deadline, err := parseDeadline(*r.Deadline)
		if err != nil {
			return patch, err
		}
		patch.Deadline = &deadline
	}
	return patch, nil
}

func parseDeadline(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, domain.WrapError(domain.ErrCodeInvalid, "deadline must be an RFC 3339 timestamp", err)
	}
	return parsed, nil
}
