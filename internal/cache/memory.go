package cache

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync"
)

var _ Store = (*MemoryStore)(nil)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// sweepThreshold is the entry count above which Set drops expired entries,
// so keys that are never read again do not pile up.
const sweepThreshold = 1024

// MemoryStore keeps entries in a concurrent map inside the process.
// Expired entries are dropped on read and swept on write once the map
// grows past sweepThreshold.
type MemoryStore struct {
	entries *xsync.MapOf[string, memoryEntry]
	now     func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, letting tests move past a TTL without
// sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: xsync.NewMapOf[memoryEntry](),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, ok := s.entries.Load(key)
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		s.entries.Delete(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	if s.entries.Size() >= sweepThreshold {
		s.entries.Range(func(k string, e memoryEntry) bool {
			if !now.Before(e.expiresAt) {
				s.entries.Delete(k)
			}
			return true
		})
	}
	s.entries.Store(key, memoryEntry{value: value, expiresAt: now.Add(ttl)})
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	return s.entries.Size()
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.entries.Range(func(key string, _ memoryEntry) bool {
		s.entries.Delete(key)
		return true
	})
	return nil
}
