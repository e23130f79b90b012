package session

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"connector-workers/internal/common/metrics"
	"connector-workers/internal/models"
)

type MemoryOptions struct {
	TTL        time.Duration
	MaxEntries int
}

// MemoryStore keeps sessions in process with a sliding TTL and LRU eviction
// once MaxEntries is reached. Expired sessions are purged in the background.
type MemoryStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *models.Session]
}

func NewMemoryStore(opts MemoryOptions) *MemoryStore {
	return &MemoryStore{
		cache: expirable.NewLRU[string, *models.Session](opts.MaxEntries, func(string, *models.Session) {
			metrics.SessionsActive.Dec()
		}, opts.TTL),
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	m.put(s)
	return s.Clone(), nil
}

func (m *MemoryStore) CreateIfAbsent(ctx context.Context, id string) (*models.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.cache.Get(id); ok {
		m.put(s)
		return s.Clone(), false, nil
	}

	s := models.NewSession(id, time.Now())
	m.put(s)
	return s.Clone(), true, nil
}

func (m *MemoryStore) Update(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(s.Clone())
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache.Remove(id)
	return nil
}

// Len reports the number of stored sessions, expired ones included until
// the background purge reaches them.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// put stores s and restarts its TTL. An expired entry that has not been
// purged yet is overwritten in place.
func (m *MemoryStore) put(s *models.Session) {
	known := m.cache.Contains(s.ID)
	m.cache.Add(s.ID, s)
	if !known {
		metrics.SessionsActive.Inc()
	}
}
