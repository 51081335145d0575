package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/personalizer/internal/entity"
	"github.com/octobees/personalizer/pkg/reversecontact"
)

func TestEnrichmentService_Lookup(t *testing.T) {
	contacts := newMemoryContacts()
	client := &stubEnrichment{payload: reversecontact.Payload{"success": true, "person": map[string]any{"firstName": "Jane"}}}
	svc := NewEnrichmentService(client, contacts)
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	id, err := entity.NewIdentifier("", "https://linkedin.com/in/jane")
	require.NoError(t, err)

	data, err := svc.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Jane", data.FirstName())
	assert.Equal(t, "linkedInUrl:https://linkedin.com/in/jane", client.lastBy.Load())

	stored, err := contacts.FindByIdentifier(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Jane", stored.Data.FirstName())

	// A second lookup still reaches the provider.
	_, err = svc.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int32(2), client.calls.Load())
	assert.Equal(t, int32(2), contacts.upserts.Load())
}

func TestEnrichmentService_LookupErrors(t *testing.T) {
	id, err := entity.NewIdentifier("jane@acme.io", "")
	require.NoError(t, err)

	contacts := newMemoryContacts()
	svc := NewEnrichmentService(&stubEnrichment{err: reversecontact.ErrNotFound}, contacts)
	_, err = svc.Lookup(context.Background(), id)
	assert.ErrorIs(t, err, ErrContactNotFound)
	assert.Equal(t, int32(0), contacts.upserts.Load())

	svc = NewEnrichmentService(&stubEnrichment{err: errors.New("dial tcp: timeout")}, contacts)
	_, err = svc.Lookup(context.Background(), id)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestEnrichmentService_RefreshFailureIsNotFatal(t *testing.T) {
	contacts := newMemoryContacts()
	contacts.upsertErr = errors.New("store unavailable")
	svc := NewEnrichmentService(&stubEnrichment{payload: reversecontact.Payload{"success": true}}, contacts)

	id, err := entity.NewIdentifier("jane@acme.io", "")
	require.NoError(t, err)

	data, err := svc.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, data.Success())
}
