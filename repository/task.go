package repository

import (
	"context"
	"time"

	"github.com/fastygo/taskboard/domain"
)

// TaskFilter narrows a task listing. A zero Limit returns every match.
type TaskFilter struct {
	Category domain.Category
	Limit    int
	Offset   int
}

// IsZero reports whether the filter selects the whole collection.
func (f TaskFilter) IsZero() bool {
	return f == TaskFilter{}
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	ListOverdue(ctx context.Context, now time.Time) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
