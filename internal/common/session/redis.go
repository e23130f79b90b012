package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"connector-workers/internal/models"
)

// RedisStore keeps each session as a JSON document under prefix+id. Every
// write refreshes the TTL.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStore) CreateIfAbsent(ctx context.Context, id string) (*models.Session, bool, error) {
	s, created, err := r.createIfAbsent(ctx, id)
	if errors.Is(err, ErrNotFound) {
		// expired between SETNX and GET
		s, created, err = r.createIfAbsent(ctx, id)
	}
	if errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("create session %s: key expired twice during create", id)
	}
	return s, created, err
}

func (r *RedisStore) createIfAbsent(ctx context.Context, id string) (*models.Session, bool, error) {
	fresh := models.NewSession(id, r.now())
	payload, err := json.Marshal(fresh)
	if err != nil {
		return nil, false, fmt.Errorf("encode session %s: %w", id, err)
	}

	created, err := r.client.SetNX(ctx, r.key(id), payload, r.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("create session %s: %w", id, err)
	}
	if created {
		return fresh, true, nil
	}

	s, err := r.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return s, false, nil
}

func (r *RedisStore) Update(ctx context.Context, s *models.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, r.key(s.ID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("update session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
