package ratelimit

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryStore holds in-process window counters. One store may be shared by
// several MemoryLimiter instances; use distinct prefixes to keep them apart.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often windows that already ended are dropped.
// Zero disables the background cleanup.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval >= 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithStoreClock replaces the time source the cleanup compares window ends
// against. It must match the clock given to the limiters via WithClock,
// otherwise cleanup drops live windows or keeps ended ones.
func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty store. Call Close to stop the cleanup goroutine.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		windows:         make(map[string]*memoryWindow),
		now:             time.Now,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cleanupInterval > 0 {
		go s.cleanupLoop()
	}

	return s
}

// hit increments the window counter when allow approves the current value.
// The read and the increment happen in one critical section.
func (s *MemoryStore) hit(key string, resetAt time.Time, allow func(current int64) bool) (current int64, incremented bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		w = &memoryWindow{resetAt: resetAt}
	}
	if !allow(w.count) {
		return w.count, false
	}
	if !ok {
		s.windows[key] = w
	}
	w.count++
	return w.count, true
}

func (s *MemoryStore) get(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.windows[key]; ok {
		return w.count
	}
	return 0
}

// deleteWindows removes every window key of the form base + ":" + window id.
func (s *MemoryStore) deleteWindows(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.windows {
		id, ok := strings.CutPrefix(key, base+":")
		if !ok {
			continue
		}
		if _, err := strconv.ParseInt(id, 10, 64); err == nil {
			delete(s.windows, key)
		}
	}
}

// Len returns the number of live windows.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired(s.now())
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) removeExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}
