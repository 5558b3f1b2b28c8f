package guard

import (
	"context"
	"sync"
	"time"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
)

// MemoryStore keeps attempts in process memory. Each key has its own mutex so
// concurrent attempts for different keys never contend, and concurrent
// attempts for the same key never lose an update.
type MemoryStore struct {
	entries sync.Map // map[string]*memoryEntry
	now     func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

type memoryRecord struct {
	authDomain.AttemptRecord
	expiresAt time.Time
}

type memoryEntry struct {
	mu      sync.Mutex
	records []memoryRecord
	deleted bool
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the time source used for expiry.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{now: time.Now, stop: make(chan struct{})}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reserve appends rec under key when fewer than limit records are counted in
// the window. Counting and appending happen under the key's mutex.
func (s *MemoryStore) Reserve(
	_ context.Context,
	key string,
	rec authDomain.AttemptRecord,
	since time.Time,
	limit int,
	failuresOnly bool,
	ttl time.Duration,
) (Reservation, error) {
	var res Reservation
	s.update(key, func(entry *memoryEntry) {
		entry.records = pruneExpired(entry.records, s.now())
		for _, r := range entry.records {
			if inWindow(r.At, since) && isCounted(r.AttemptRecord, failuresOnly) {
				res.Counted = append(res.Counted, r.AttemptRecord)
			}
		}
		if len(res.Counted) < limit {
			entry.add(rec, ttl)
			res.Admitted = true
		}
	})
	return res, nil
}

// Record settles the oldest pending record of key, or appends rec when none
// is pending. Timestamps never go backwards within a key.
func (s *MemoryStore) Record(_ context.Context, key string, rec authDomain.AttemptRecord, ttl time.Duration) error {
	s.update(key, func(entry *memoryEntry) {
		entry.records = pruneExpired(entry.records, s.now())
		if i := entry.oldestPending(); i >= 0 {
			entry.records[i].Outcome = rec.Outcome
			return
		}
		entry.add(rec, ttl)
	})
	return nil
}

// Release drops the oldest pending record of key.
func (s *MemoryStore) Release(_ context.Context, key string) error {
	value, ok := s.entries.Load(key)
	if !ok {
		return nil
	}
	entry := value.(*memoryEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if i := entry.oldestPending(); i >= 0 {
		entry.records = append(entry.records[:i], entry.records[i+1:]...)
	}
	return nil
}

// Attempts returns the live records of key after since.
func (s *MemoryStore) Attempts(_ context.Context, key string, since time.Time) ([]authDomain.AttemptRecord, error) {
	value, ok := s.entries.Load(key)
	if !ok {
		return nil, nil
	}
	entry := value.(*memoryEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.records = pruneExpired(entry.records, s.now())

	result := make([]authDomain.AttemptRecord, 0, len(entry.records))
	for _, rec := range entry.records {
		if inWindow(rec.At, since) {
			result = append(result, rec.AttemptRecord)
		}
	}
	return result, nil
}

// Reset forgets key.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	value, ok := s.entries.Load(key)
	if !ok {
		return nil
	}
	entry := value.(*memoryEntry)

	entry.mu.Lock()
	entry.records = nil
	entry.mu.Unlock()
	return nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// StartCleanup purges idle keys every interval until Close is called.
func (s *MemoryStore) StartCleanup(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Cleanup removes keys without live records.
func (s *MemoryStore) Cleanup() {
	now := s.now()
	s.entries.Range(func(key, value any) bool {
		entry := value.(*memoryEntry)

		entry.mu.Lock()
		entry.records = pruneExpired(entry.records, now)
		if len(entry.records) == 0 {
			entry.deleted = true
			s.entries.CompareAndDelete(key, entry)
		}
		entry.mu.Unlock()
		return true
	})
}

// Close stops the cleanup goroutine and waits for it to exit.
func (s *MemoryStore) Close() error {
	s.once.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
	return nil
}

// update runs fn with the entry of key locked, creating the entry if needed.
func (s *MemoryStore) update(key string, fn func(entry *memoryEntry)) {
	for {
		entry := s.load(key)

		entry.mu.Lock()
		if entry.deleted {
			// Lost a race with cleanup; the entry is gone from the map.
			entry.mu.Unlock()
			continue
		}
		fn(entry)
		entry.mu.Unlock()
		return
	}
}

func (s *MemoryStore) load(key string) *memoryEntry {
	if value, ok := s.entries.Load(key); ok {
		return value.(*memoryEntry)
	}
	value, _ := s.entries.LoadOrStore(key, &memoryEntry{})
	return value.(*memoryEntry)
}

func (e *memoryEntry) add(rec authDomain.AttemptRecord, ttl time.Duration) {
	if n := len(e.records); n > 0 && rec.At.Before(e.records[n-1].At) {
		rec.At = e.records[n-1].At
	}
	e.records = append(e.records, memoryRecord{AttemptRecord: rec, expiresAt: rec.At.Add(ttl)})
}

func (e *memoryEntry) oldestPending() int {
	for i, rec := range e.records {
		if rec.Outcome == authDomain.OutcomePending {
			return i
		}
	}
	return -1
}

// pruneExpired drops records whose expiry is not after now, compared in
// microseconds. Records are sorted by time, so expired ones form a prefix.
func pruneExpired(records []memoryRecord, now time.Time) []memoryRecord {
	i := 0
	for i < len(records) && records[i].expiresAt.UnixMicro() <= now.UnixMicro() {
		i++
	}
	if i == 0 {
		return records
	}
	return append(records[:0], records[i:]...)
}
