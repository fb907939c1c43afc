package jobs

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	job     Job
	expires time.Time
}

// MemoryStore is the default in-process store: a TTL map with lazy
// expiration on read plus a periodic sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryStore(ttl, sweepInterval time.Duration) *MemoryStore {
	store := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go store.sweep(sweepInterval)
	}
	return store
}

func (s *MemoryStore) Put(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[job.ID] = memoryEntry{job: *job, expires: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return nil, ErrNotFound
	}
	job := entry.job
	return &job, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Close stops the background sweeper.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, entry := range s.entries {
				if now.After(entry.expires) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
