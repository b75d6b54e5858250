package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

const taskTTL = 15 * time.Minute

func taskKey(id int) string { return "tarea:" + strconv.Itoa(id) }

// TaskCache is the read-through cache in front of Postgres: detail screens
// poll task state after every mutation, and most of those reads never need
// to touch the database.
type TaskCache interface {
	SetTask(ctx context.Context, task *domain.Task) error
	GetTask(ctx context.Context, id int) (*domain.Task, error)
	Invalidate(ctx context.Context, id int) error
}

type taskCache struct {
	client *redis.Client
}

// NewTaskCache creates a Redis-backed TaskCache.
func NewTaskCache(client *redis.Client) TaskCache {
	return &taskCache{client: client}
}

// NewClient creates and returns a new Redis client.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		PoolSize:     10,
	})
}

func (c *taskCache) SetTask(ctx context.Context, task *domain.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %d: %w", task.ID, err)
	}
	if err := c.client.Set(ctx, taskKey(task.ID), data, taskTTL).Err(); err != nil {
		return fmt.Errorf("redis set task %d: %w", task.ID, err)
	}
	return nil
}

func (c *taskCache) GetTask(ctx context.Context, id int) (*domain.Task, error) {
	data, err := c.client.Get(ctx, taskKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, &domain.NotFoundError{Kind: "tarea", ID: id}
		}
		return nil, fmt.Errorf("redis get task %d: %w", id, err)
	}
	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("unmarshal cached task %d: %w", id, err)
	}
	return &task, nil
}

func (c *taskCache) Invalidate(ctx context.Context, id int) error {
	if err := c.client.Del(ctx, taskKey(id)).Err(); err != nil {
		return fmt.Errorf("redis invalidate task %d: %w", id, err)
	}
	return nil
}
