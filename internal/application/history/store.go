package history

import (
	"strings"
	"sync"
	"time"

	"wallet-history-indexer/internal/domain/entity"
)

// Store holds the displayed history of the active account. Every fetch takes
// a generation from Begin; a completion is applied only when it belongs to the
// active account and is newer than the last applied one.
type Store struct {
	mu         sync.RWMutex
	active     string
	generation uint64
	applied    uint64
	snapshot   entity.Snapshot
	now        func() time.Time
}

// NewStore creates a store for the initially active account
func NewStore(account string, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		active:   account,
		snapshot: entity.Snapshot{Account: account},
		now:      now,
	}
}

// Active returns the active account
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActive switches the active account. On a change the displayed history is
// cleared and every in-flight fetch becomes stale.
func (s *Store) SetActive(account string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.EqualFold(s.active, account) {
		return false
	}

	s.active = account
	s.applied = s.generation
	s.snapshot = entity.Snapshot{Account: account}
	return true
}

// Begin registers a fetch for account and returns its generation. A fetch
// for an account that is no longer active gets generation 0, which is never applied.
func (s *Store) Begin(account string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !strings.EqualFold(s.active, account) {
		return 0
	}
	s.generation++
	s.snapshot.Loading = true
	return s.generation
}

// Commit replaces the displayed history with result. warning is shown
// alongside the data when some record kinds failed.
func (s *Store) Commit(gen uint64, account string, result *Result, warning string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(gen, account) {
		return false
	}

	s.applied = gen
	s.snapshot = entity.Snapshot{
		Account:   s.active,
		Events:    result.Events,
		Buckets:   result.Buckets,
		Tokens:    result.Tokens,
		Loading:   s.generation > s.applied,
		LastError: warning,
		UpdatedAt: s.now(),
	}
	return true
}

// Fail records a failed fetch. Displayed data is kept unless clear is set.
func (s *Store) Fail(gen uint64, account string, err error, clear bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(gen, account) {
		return false
	}

	s.applied = gen
	if clear {
		s.snapshot.Events = nil
		s.snapshot.Buckets = nil
		s.snapshot.Tokens = nil
	}
	s.snapshot.Loading = s.generation > s.applied
	s.snapshot.LastError = err.Error()
	s.snapshot.UpdatedAt = s.now()
	return true
}

// Snapshot returns a copy safe to hand to readers
func (s *Store) Snapshot() entity.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Events = append([]entity.ProcessedEvent(nil), s.snapshot.Events...)
	snap.Tokens = append([]entity.TokenInfo(nil), s.snapshot.Tokens...)
	snap.Buckets = make([]entity.GroupedBucket, len(s.snapshot.Buckets))
	for i, b := range s.snapshot.Buckets {
		snap.Buckets[i] = entity.GroupedBucket{
			DateLabel: b.DateLabel,
			Events:    append([]entity.ProcessedEvent(nil), b.Events...),
		}
	}
	return snap
}

// current must be called with the lock held
func (s *Store) current(gen uint64, account string) bool {
	return strings.EqualFold(s.active, account) && gen > s.applied
}
