package redis

import (
	"context"
	"encoding/json"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type taskCache struct {
	client *redislib.Client
	key    string
	ttl    time.Duration
}

// NewTaskCache creates a Redis-backed cache for the full task list.
func NewTaskCache(client *redislib.Client, ttl time.Duration) repository.TaskCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &taskCache{
		client: client,
		key:    "tasks:all",
		ttl:    ttl,
	}
}

func (c *taskCache) GetAll(ctx context.Context) ([]domain.Task, bool, error) {
	result, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if err == redislib.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}

	var tasks []domain.Task
	if err := json.Unmarshal(result, &tasks); err != nil {
		// A payload we can no longer decode is treated as a miss.
		_ = c.client.Del(ctx, c.key).Err()
		return nil, false, nil
	}
	return tasks, true, nil
}

func (c *taskCache) SetAll(ctx context.Context, tasks []domain.Task) error {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, payload, c.ttl).Err()
}

func (c *taskCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
