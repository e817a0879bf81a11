package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// StatusRecord is what the polling endpoint sees.
type StatusRecord struct {
	Status Status `json:"status"`
	Result *Task  `json:"result,omitempty"`
}

// RedisStore keeps task results in redis so the API process and the worker
// process share them.
type RedisStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedisStore(client *redisv9.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) SavePending(ctx context.Context, taskID string) error {
	return s.save(ctx, taskID, StatusRecord{Status: StatusPending})
}

func (s *RedisStore) SaveResult(ctx context.Context, t *Task) error {
	return s.save(ctx, t.ID, StatusRecord{Status: t.Status(), Result: t})
}

func (s *RedisStore) Get(ctx context.Context, taskID string) (*StatusRecord, error) {
	raw, err := s.client.Get(ctx, s.key(taskID)).Result()
	if err == redisv9.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get task failed: %w", err)
	}

	var record StatusRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("unmarshal task record failed: %w", err)
	}
	return &record, nil
}

func (s *RedisStore) save(ctx context.Context, taskID string, record StatusRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal task record failed: %w", err)
	}
	if err := s.client.Set(ctx, s.key(taskID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis save task failed: %w", err)
	}
	return nil
}

func (s *RedisStore) key(taskID string) string {
	return "task:" + taskID
}
