// Package snapcache memoizes availability snapshots by date-window key with a
// time-to-live. The cache is a passive store: request deduplication is the
// caller's job, and the last write for a key wins.
package snapcache

import (
	"fmt"
	"sync"
	"time"

	"github.com/casaleverde/bookingengine/internal/booking"
	"github.com/casaleverde/bookingengine/internal/booking/calendar"
)

// DefaultTTL is how long a snapshot stays fresh.
const DefaultTTL = 5 * time.Minute

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Key identifies a cached window by its start and end dates.
type Key struct {
	Start booking.Date
	End   booking.Date
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Start, k.End)
}

// Store is the cache abstraction the engine callers depend on. Implementations
// must support concurrent readers.
type Store interface {
	// Get returns the snapshot for a window, or false on a miss. Expired
	// entries count as misses and are evicted on the way out.
	Get(key Key) (*calendar.Snapshot, bool)
	// Put stores a snapshot. Duplicate writes are idempotent.
	Put(key Key, snap *calendar.Snapshot)
	// Sweep evicts every expired entry and returns how many it removed.
	Sweep() int
}

type memoryEntry struct {
	snap     *calendar.Snapshot
	storedAt time.Time
}

// MemoryStore is a read-mostly in-memory Store with TTL eviction.
type MemoryStore struct {
	ttl   time.Duration
	clock Clock

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore builds an in-memory store. A zero ttl uses DefaultTTL; a nil
// clock uses real time.
func NewMemoryStore(ttl time.Duration, clock Clock) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = realClock{}
	}
	return &MemoryStore{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Get(key Key) (*calendar.Snapshot, bool) {
	k := key.String()
	now := s.clock.Now()

	s.mu.RLock()
	e, ok := s.entries[k]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if now.Sub(e.storedAt) >= s.ttl {
		s.mu.Lock()
		// Re-check under the write lock; a fresh Put may have raced in.
		if cur, ok := s.entries[k]; ok && now.Sub(cur.storedAt) >= s.ttl {
			delete(s.entries, k)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.snap, true
}

func (s *MemoryStore) Put(key Key, snap *calendar.Snapshot) {
	s.mu.Lock()
	s.entries[key.String()] = memoryEntry{snap: snap, storedAt: s.clock.Now()}
	s.mu.Unlock()
}

func (s *MemoryStore) Sweep() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for k, e := range s.entries {
		if now.Sub(e.storedAt) >= s.ttl {
			delete(s.entries, k)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of entries currently held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
