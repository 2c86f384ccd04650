package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "furnibot:state:"

type redisManager struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisManager stores sessions as JSON under prefix+chatID.
// ttl <= 0 keeps sessions until cleared.
func NewRedisManager(client *redis.Client, prefix string, ttl time.Duration) Manager {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &redisManager{client: client, prefix: prefix, ttl: ttl}
}

func (m *redisManager) key(id int64) string {
	return m.prefix + strconv.FormatInt(id, 10)
}

func (m *redisManager) Load(ctx context.Context, id int64) (*Session, error) {
	raw, err := m.client.Get(ctx, m.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("state load: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("state decode: %w", err)
	}
	return &s, nil
}

func (m *redisManager) Save(ctx context.Context, id int64, s *Session) error {
	if s == nil || s.State == StateIdle {
		return m.Clear(ctx, id)
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("state encode: %w", err)
	}
	if err := m.client.Set(ctx, m.key(id), payload, m.ttl).Err(); err != nil {
		return fmt.Errorf("state save: %w", err)
	}
	return nil
}

func (m *redisManager) Clear(ctx context.Context, id int64) error {
	if err := m.client.Del(ctx, m.key(id)).Err(); err != nil {
		return fmt.Errorf("state clear: %w", err)
	}
	return nil
}
