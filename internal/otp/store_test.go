package otp

import (
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	s := NewMemoryStore()
	exp := time.Now().Add(time.Minute)

	s.Put(" Jane@Acme.io ", Entry{Hash: []byte("h1"), ExpiresAt: exp})

	e, ok := s.Get("jane@acme.io")
	if !ok || string(e.Hash) != "h1" {
		t.Fatalf("expected stored entry, got %+v ok=%v", e, ok)
	}

	s.Put("jane@acme.io", Entry{Hash: []byte("h2"), ExpiresAt: exp})
	if e, _ := s.Get("JANE@acme.io"); string(e.Hash) != "h2" {
		t.Fatalf("expected newer code to replace older one, got %s", e.Hash)
	}

	s.Delete("jane@acme.io")
	if _, ok := s.Get("jane@acme.io"); ok {
		t.Fatalf("expected entry to be removed")
	}
}

func TestMemoryStore_TakeAndRestore(t *testing.T) {
	s := NewMemoryStore()
	exp := time.Now().Add(time.Minute)
	s.Put("jane@acme.io", Entry{Hash: []byte("h1"), ExpiresAt: exp})

	e, ok := s.Take(" JANE@acme.io")
	if !ok || string(e.Hash) != "h1" {
		t.Fatalf("expected to take stored entry, got %+v ok=%v", e, ok)
	}
	if _, ok := s.Take("jane@acme.io"); ok {
		t.Fatalf("expected second take to find nothing")
	}

	if !s.Restore("jane@acme.io", e) {
		t.Fatalf("expected restore into empty slot")
	}
	s.Take("jane@acme.io")
	s.Put("jane@acme.io", Entry{Hash: []byte("h2"), ExpiresAt: exp})
	if s.Restore("jane@acme.io", e) {
		t.Fatalf("expected restore to leave newer entry alone")
	}
	if got, _ := s.Get("jane@acme.io"); string(got.Hash) != "h2" {
		t.Fatalf("expected newer entry kept, got %s", got.Hash)
	}
}

func TestMemoryStore_ConcurrentTake(t *testing.T) {
	s := NewMemoryStore()
	s.Put("a@b.c", Entry{ExpiresAt: time.Now().Add(time.Minute)})

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		taken int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Take("a@b.c"); ok {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if taken != 1 {
		t.Fatalf("expected exactly one take to succeed, got %d", taken)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	s.Put("old@x.io", Entry{ExpiresAt: now.Add(-time.Second)})
	s.Put("edge@x.io", Entry{ExpiresAt: now})
	s.Put("fresh@x.io", Entry{ExpiresAt: now.Add(time.Minute)})

	if removed := s.Sweep(); removed != 2 {
		t.Fatalf("expected 2 expired entries removed, got %d", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", s.Len())
	}
	if _, ok := s.Get("fresh@x.io"); !ok {
		t.Fatalf("expected fresh entry to survive")
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Put("a@b.c", Entry{ExpiresAt: time.Now().Add(time.Minute)})
			s.Get("a@b.c")
			s.Sweep()
		}()
	}
	wg.Wait()
	if s.Len() != 1 {
		t.Fatalf("expected one entry, got %d", s.Len())
	}
}
