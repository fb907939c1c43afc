package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "timesolver:job:"

// RedisStore keeps jobs in Redis so results survive process restarts and
// can be shared across replicas. Expiration is delegated to the key TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	return s.client.Set(ctx, redisKeyPrefix+job.ID, payload, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	job := &Job{}
	if err := json.Unmarshal(payload, job); err != nil {
		return nil, fmt.Errorf("unmarshal job %s: %w", id, err)
	}
	return job, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisKeyPrefix+id).Err()
}
