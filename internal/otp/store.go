// Package otp holds pending one-time codes keyed by email.
package otp

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Entry is a pending code. Only the hash is kept.
type Entry struct {
	Hash      []byte
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store persists pending codes.
type Store interface {
	Put(email string, entry Entry)
	Get(email string) (Entry, bool)
	Delete(email string)
	// Take removes and returns the pending entry in one step, so at most one caller gets it.
	Take(email string) (Entry, bool)
	// Restore puts a taken entry back unless a newer one was stored meanwhile.
	Restore(email string, entry Entry) bool
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]Entry{}, now: time.Now}
}

// Normalize returns the key an email is stored under.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Put replaces any pending code for email.
func (s *MemoryStore) Put(email string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Normalize(email)] = entry
}

// Get returns the pending entry for email. Expired entries are kept until
// Delete or Sweep so callers can tell an expired code from a missing one.
func (s *MemoryStore) Get(email string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[Normalize(email)]
	return e, ok
}

// Delete removes the entry for email.
func (s *MemoryStore) Delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, Normalize(email))
}

// Take implements Store.
func (s *MemoryStore) Take(email string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := Normalize(email)
	e, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	return e, ok
}

// Restore implements Store.
func (s *MemoryStore) Restore(email string, entry Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := Normalize(email)
	if _, ok := s.entries[key]; ok {
		return false
	}
	s.entries[key] = entry
	return true
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
