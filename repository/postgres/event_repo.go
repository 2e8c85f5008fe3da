package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a Postgres-backed EventRepository implementation.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Append(ctx context.Context, event domain.TaskEvent) error {
	const query = `
	INSERT INTO task_events (id, task_id, name, payload, created_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
	ON CONFLICT (id) DO NOTHING
	`

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.TaskID,
		event.Name,
		nullJSON(event.Payload),
		nullTime(event.CreatedAt),
	)
	return err
}

func (r *eventRepository) ListByTask(ctx context.Context, taskID string, limit int) ([]domain.TaskEvent, error) {
	const query = `
	SELECT id, task_id, name, payload, created_at
	FROM task_events
	WHERE task_id = $1
	ORDER BY created_at ASC, id ASC
	LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, taskID, limitArg(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.TaskEvent{}
	for rows.Next() {
		var (
			event   domain.TaskEvent
			payload []byte
		)
		if err := rows.Scan(&event.ID, &event.TaskID, &event.Name, &payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			event.Payload = append([]byte(nil), payload...)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
