package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityTask  = "task"
	EntityEvent = "event"

	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationAppend = "append"
)

// Drain order: a task must exist before it is updated, and its history comes last.
const (
	PriorityCreate = 1
	PriorityUpdate = 2
	PriorityDelete = 3
	PriorityEvent  = 5
)

// Item is a write that could not reach Postgres and waits to be replayed.
type Item struct {
	ID        string          `json:"id"`
	TaskID    string          `json:"task_id"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

// PriorityFor returns the drain priority of an operation.
func PriorityFor(entity, operation string) int {
	if entity == EntityEvent {
		return PriorityEvent
	}
	switch operation {
	case OperationCreate:
		return PriorityCreate
	case OperationUpdate:
		return PriorityUpdate
	case OperationDelete:
		return PriorityDelete
	default:
		return PriorityEvent
	}
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = PriorityFor(i.Entity, i.Operation)
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
