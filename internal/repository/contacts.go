package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/octobees/personalizer/internal/entity"
	"github.com/octobees/personalizer/internal/store"
)

var (
	// ErrContactNotFound is returned when no enrichment record exists for an identifier.
	ErrContactNotFound = errors.New("contact not found")
	// ErrDuplicate is returned when a record already exists for an identifier.
	ErrDuplicate = errors.New("record already exists")
)

// ContactsRepository persists enrichment records.
type ContactsRepository interface {
	FindByIdentifier(ctx context.Context, id entity.Identifier) (*entity.Contact, error)
	Create(ctx context.Context, id entity.Identifier, contact *entity.Contact) error
	Upsert(ctx context.Context, id entity.Identifier, data entity.ContactData, now time.Time) error
}

// DocumentContactsRepository implements ContactsRepository on a document store.
type DocumentContactsRepository struct {
	coll store.Collection
}

// NewDocumentContactsRepository binds the repository to the contacts collection of s.
func NewDocumentContactsRepository(s store.Store) *DocumentContactsRepository {
	return &DocumentContactsRepository{coll: s.Collection(store.CollectionContacts)}
}

// FindByIdentifier fetches the cached record for id.
func (r *DocumentContactsRepository) FindByIdentifier(ctx context.Context, id entity.Identifier) (*entity.Contact, error) {
	var contact entity.Contact
	if err := r.coll.FindOne(ctx, keyFor(id), &contact); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("find contact by %s: %w", id.Kind, err)
	}
	return &contact, nil
}

// Create inserts a new record. It fails with ErrDuplicate when one already exists.
func (r *DocumentContactsRepository) Create(ctx context.Context, id entity.Identifier, contact *entity.Contact) error {
	if err := r.coll.InsertOne(ctx, keyFor(id), contact); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// Upsert replaces the payload of the record for id, creating it when absent.
// The creation time is kept from the first write.
func (r *DocumentContactsRepository) Upsert(ctx context.Context, id entity.Identifier, data entity.ContactData, now time.Time) error {
	update := store.Update{
		Set: map[string]any{
			"data":      data,
			"updatedAt": now,
		},
		SetOnInsert: map[string]any{
			"createdAt": now,
		},
	}
	if err := r.coll.UpdateOne(ctx, keyFor(id), update, true); err != nil {
		return fmt.Errorf("upsert contact: %w", err)
	}
	return nil
}

func keyFor(id entity.Identifier) store.Key {
	return store.Key{Field: string(id.Kind), Value: id.Value}
}
