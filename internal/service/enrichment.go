package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/octobees/personalizer/internal/entity"
	"github.com/octobees/personalizer/internal/repository"
	"github.com/octobees/personalizer/pkg/reversecontact"
)

// EnrichmentService answers direct enrichment lookups and keeps the stored record fresh.
type EnrichmentService struct {
	client   reversecontact.Client
	contacts repository.ContactsRepository
	now      func() time.Time
}

// NewEnrichmentService creates an EnrichmentService.
func NewEnrichmentService(client reversecontact.Client, contacts repository.ContactsRepository) *EnrichmentService {
	return &EnrichmentService{client: client, contacts: contacts, now: time.Now}
}

// Lookup always queries the provider and refreshes the stored record for id.
// A failed refresh is logged and does not fail the lookup.
func (s *EnrichmentService) Lookup(ctx context.Context, id entity.Identifier) (entity.ContactData, error) {
	data, err := fetchContactData(ctx, s.client, id)
	if err != nil {
		return nil, err
	}

	if err := s.contacts.Upsert(ctx, id, data, s.now().UTC()); err != nil {
		zap.L().Warn("refresh enrichment record failed",
			zap.String("identifier", string(id.Kind)),
			zap.Error(err),
		)
	}
	return data, nil
}

func fetchContactData(ctx context.Context, client reversecontact.Client, id entity.Identifier) (entity.ContactData, error) {
	var (
		payload reversecontact.Payload
		err     error
	)
	switch id.Kind {
	case entity.KindEmail:
		payload, err = client.ByEmail(ctx, id.Value)
	case entity.KindLinkedInURL:
		payload, err = client.ByLinkedInURL(ctx, id.Value)
	default:
		return nil, entity.ErrMissingIdentifier
	}

	if errors.Is(err, reversecontact.ErrNotFound) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return entity.ContactData(payload), nil
}
