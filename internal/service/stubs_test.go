package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/octobees/personalizer/internal/entity"
	"github.com/octobees/personalizer/internal/repository"
	"github.com/octobees/personalizer/pkg/llm"
	"github.com/octobees/personalizer/pkg/reversecontact"
)

type memoryPitches struct {
	mu        sync.Mutex
	records   map[string]*entity.Pitch
	findErr   error
	createErr error
	creates   atomic.Int32

	// beforeCreate runs under the lock, ahead of the duplicate check.
	beforeCreate func()
}

func newMemoryPitches() *memoryPitches {
	return &memoryPitches{records: map[string]*entity.Pitch{}}
}

func (m *memoryPitches) FindByIdentifier(_ context.Context, id entity.Identifier) (*entity.Pitch, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[id.String()]
	if !ok {
		return nil, repository.ErrPitchNotFound
	}
	return p, nil
}

func (m *memoryPitches) Create(_ context.Context, id entity.Identifier, pitch *entity.Pitch) error {
	m.creates.Add(1)
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beforeCreate != nil {
		m.beforeCreate()
	}
	if _, ok := m.records[id.String()]; ok {
		return repository.ErrDuplicate
	}
	m.records[id.String()] = pitch
	return nil
}

type memoryContacts struct {
	mu        sync.Mutex
	records   map[string]*entity.Contact
	upsertErr error
	upserts   atomic.Int32
}

func newMemoryContacts() *memoryContacts {
	return &memoryContacts{records: map[string]*entity.Contact{}}
}

func (m *memoryContacts) FindByIdentifier(_ context.Context, id entity.Identifier) (*entity.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.records[id.String()]
	if !ok {
		return nil, repository.ErrContactNotFound
	}
	return c, nil
}

func (m *memoryContacts) Create(_ context.Context, id entity.Identifier, contact *entity.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id.String()]; ok {
		return repository.ErrDuplicate
	}
	m.records[id.String()] = contact
	return nil
}

func (m *memoryContacts) Upsert(_ context.Context, id entity.Identifier, data entity.ContactData, now time.Time) error {
	m.upserts.Add(1)
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.records[id.String()]; ok {
		c.Data = data
		c.UpdatedAt = &now
		return nil
	}
	m.records[id.String()] = entity.NewContact(id, data, now)
	return nil
}

type stubEnrichment struct {
	payload reversecontact.Payload
	err     error
	calls   atomic.Int32
	lastBy  atomic.Value
}

func (s *stubEnrichment) ByEmail(_ context.Context, email string) (reversecontact.Payload, error) {
	s.calls.Add(1)
	s.lastBy.Store("email:" + email)
	return s.payload, s.err
}

func (s *stubEnrichment) ByLinkedInURL(_ context.Context, url string) (reversecontact.Payload, error) {
	s.calls.Add(1)
	s.lastBy.Store("linkedInUrl:" + url)
	return s.payload, s.err
}

type stubGenerator struct {
	text    string
	err     error
	calls   atomic.Int32
	mu      sync.Mutex
	last    llm.Request
	started chan struct{}
	release chan struct{}
}

func (g *stubGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	if g.calls.Add(1) == 1 && g.started != nil {
		close(g.started)
	}
	if g.release != nil {
		<-g.release
	}
	g.mu.Lock()
	g.last = req
	g.mu.Unlock()
	return g.text, g.err
}

func (g *stubGenerator) lastRequest() llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}
