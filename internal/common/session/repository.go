// Package session stores per-conversation memory for the chat turn
// assembler.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connector-workers/internal/common/config"
	"connector-workers/internal/common/database"
	"connector-workers/internal/common/logger"
	"connector-workers/internal/models"
)

var ErrNotFound = errors.New("session not found")

// Repository is keyed by session id; implementations never share state
// between ids and return copies the caller may mutate freely.
type Repository interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	// CreateIfAbsent returns the stored session for id, creating an empty one
	// when none exists. The bool reports whether it was created.
	CreateIfAbsent(ctx context.Context, id string) (*models.Session, bool, error)
	Update(ctx context.Context, s *models.Session) error
	// Delete drops the session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// NewFromConfig builds the configured backend. The returned closer releases
// the backend's resources.
func NewFromConfig(cfg *config.Config, log logger.Logger) (Repository, func() error, error) {
	sess := cfg.Connector.Session
	switch sess.Backend {
	case config.SessionBackendMemory, "":
		store := NewMemoryStore(MemoryOptions{
			TTL:        sess.TTL(),
			MaxEntries: sess.MaxEntries,
		})
		return store, func() error { return nil }, nil
	case config.SessionBackendRedis:
		rc, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, nil, err
		}
		log.Info("redis session store connected", map[string]interface{}{"address": cfg.Database.Redis.Address})
		return NewRedisStore(rc.Client, sess.KeyPrefix, sess.TTL()), rc.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session backend %q", sess.Backend)
	}
}
