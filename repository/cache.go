package repository

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

// TaskCache holds the unfiltered task list between writes.
type TaskCache interface {
	// GetAll returns the cached list and whether it was present.
	GetAll(ctx context.Context) ([]domain.Task, bool, error)
	SetAll(ctx context.Context, tasks []domain.Task) error
	Invalidate(ctx context.Context) error
}
