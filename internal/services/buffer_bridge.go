package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/usecase"
)

// BufferBridge turns use case writes into buffer items.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferTask(ctx context.Context, operation string, task *domain.Task) error {
	if b.processor == nil || task == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	item := buffer.Item{
		TaskID:    task.ID,
		Entity:    buffer.EntityTask,
		Operation: operation,
		Data:      payload,
		Priority:  buffer.PriorityFor(buffer.EntityTask, operation),
	}
	return b.processor.BufferOperation(ctx, item)
}

func (b *BufferBridge) BufferEvent(ctx context.Context, event domain.TaskEvent) error {
	if b.processor == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	item := buffer.Item{
		TaskID:    event.TaskID,
		Entity:    buffer.EntityEvent,
		Operation: buffer.OperationAppend,
		Data:      payload,
		Priority:  buffer.PriorityEvent,
	}
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
