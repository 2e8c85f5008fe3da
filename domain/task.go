package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultTitle is used when a task is saved from the board without a title.
const DefaultTitle = "TASK 1"

// Category is the board column a task currently sits in.
type Category string

const (
	CategoryToDo       Category = "To Do"
	CategoryOnProgress Category = "On Progress"
	CategoryDone       Category = "Done"
	CategoryTimeout    Category = "Timeout"
)

// Categories returns every category in board order.
func Categories() []Category {
	return []Category{CategoryToDo, CategoryOnProgress, CategoryDone, CategoryTimeout}
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	for _, valid := range Categories() {
		if c == valid {
			return true
		}
	}
	return false
}

// ParseCategory accepts a category name, ignoring case and surrounding space.
func ParseCategory(raw string) (Category, error) {
	trimmed := strings.TrimSpace(raw)
	for _, c := range Categories() {
		if strings.EqualFold(trimmed, string(c)) {
			return c, nil
		}
	}
	return "", WrapError(ErrCodeInvalid, "invalid category", fmt.Errorf("%w: %q", ErrInvalidCategory, raw))
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseCategory(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Priority is the urgency label shown on a task card.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities returns every priority from lowest to highest.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	for _, valid := range Priorities() {
		if p == valid {
			return true
		}
	}
	return false
}

// ParsePriority accepts a priority name, ignoring case and surrounding space.
func ParsePriority(raw string) (Priority, error) {
	trimmed := strings.TrimSpace(raw)
	for _, p := range Priorities() {
		if strings.EqualFold(trimmed, string(p)) {
			return p, nil
		}
	}
	return "", WrapError(ErrCodeInvalid, "invalid priority", fmt.Errorf("%w: %q", ErrInvalidPriority, raw))
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParsePriority(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Task is a single card on the board. DurationMS is the deadline minus the
// save time in milliseconds; zero means the task is not tracked for timeout.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Priority    Priority  `json:"priority"`
	Deadline    time.Time `json:"deadline"`
	DurationMS  int64     `json:"duration"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask builds a task the way the board form does: missing title, category
// and priority fall back to their defaults and the duration snapshot is taken
// against now.
func NewTask(id, title, description string, category Category, priority Priority, deadline, now time.Time) (*Task, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	if category == "" {
		category = CategoryToDo
	}
	if priority == "" {
		priority = PriorityLow
	}
	task := &Task{
		ID:          id,
		Title:       title,
		Description: description,
		Category:    category,
		Priority:    priority,
	}
	task.SetDeadline(deadline, now)
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// SetDeadline moves the deadline and refreshes the duration snapshot with it.
// A zero deadline clears the snapshot, leaving the task untracked.
func (t *Task) SetDeadline(deadline, now time.Time) {
	t.Deadline = deadline
	if deadline.IsZero() {
		t.DurationMS = 0
		return
	}
	t.DurationMS = deadline.Sub(now).Milliseconds()
}

// Duration returns the stored duration snapshot.
func (t *Task) Duration() time.Duration {
	return time.Duration(t.DurationMS) * time.Millisecond
}

// Validate checks the fields every stored task must satisfy.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	if strings.TrimSpace(t.ID) == "" {
		return ErrMissingTaskID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrTitleRequired
	}
	if !t.Category.IsValid() {
		return WrapError(ErrCodeInvalid, "invalid category", fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category))
	}
	if !t.Priority.IsValid() {
		return WrapError(ErrCodeInvalid, "invalid priority", fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority))
	}
	return nil
}

// IsCompleted reports whether the task sits in the Done column.
func (t *Task) IsCompleted() bool {
	return t != nil && t.Category == CategoryDone
}

// Overdue reports whether the task should be moved to Timeout at now. Only
// tracked tasks (non-zero duration and a deadline) that are still open can
// time out. Finished work is never reclassified: a Done task stays Done even
// with a duration and a passed deadline.
func (t *Task) Overdue(now time.Time) bool {
	if t == nil || t.DurationMS == 0 || t.Deadline.IsZero() {
		return false
	}
	if t.Category == CategoryDone || t.Category == CategoryTimeout {
		return false
	}
	return now.After(t.Deadline)
}

// Touch stamps the modification time, and the creation time on first save.
func (t *Task) Touch(now time.Time) {
	if t == nil {
		return
	}
	t.UpdatedAt = now
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
}

// TaskPatch carries the fields a partial update may change. Nil fields are
// left untouched.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *Category  `json:"category,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil && p.Priority == nil && p.Deadline == nil
}

// Apply returns a copy of t with the patch applied. A new deadline refreshes
// the duration snapshot against now.
func (p TaskPatch) Apply(t Task, now time.Time) (Task, error) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Deadline != nil {
		t.SetDeadline(*p.Deadline, now)
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// CategoryPatch is shorthand for a patch that only moves the task.
func CategoryPatch(c Category) TaskPatch {
	return TaskPatch{Category: &c}
}
