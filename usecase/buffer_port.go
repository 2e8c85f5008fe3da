package usecase

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

// Buffered operation names.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// OperationBuffer abstracts the buffer processor so use cases stay storage-agnostic.
type OperationBuffer interface {
	BufferTask(ctx context.Context, operation string, task *domain.Task) error
	BufferEvent(ctx context.Context, event domain.TaskEvent) error
}
