package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"common-corpus/internal/models"
)

// RedisStore keeps run state in Redis, for deployments where the engine runs
// on ephemeral hosts and the state file would die with the pod.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore initializes a Redis-backed Store under the given key.
func NewRedisStore(addr, key string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    key,
	}
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Save writes the snapshot. Redis SET is atomic, so readers never observe a
// torn snapshot.
func (s *RedisStore) Save(ctx context.Context, state models.RunState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return s.client.Set(ctx, s.key, payload, 0).Err()
}

// Load reads the snapshot.
func (s *RedisStore) Load(ctx context.Context) (models.RunState, bool, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.RunState{}, false, nil
		}
		return models.RunState{}, false, err
	}
	var state models.RunState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return models.RunState{}, false, fmt.Errorf("decode state: %w", err)
	}
	if state.Version != models.RunStateVersion {
		return models.RunState{}, false, fmt.Errorf("unsupported state version %d", state.Version)
	}
	return state, true, nil
}
