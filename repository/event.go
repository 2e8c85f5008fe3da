package repository

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

type EventRepository interface {
	Append(ctx context.Context, event domain.TaskEvent) error
	ListByTask(ctx context.Context, taskID string, limit int) ([]domain.TaskEvent, error)
}
