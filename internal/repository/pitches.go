package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/octobees/personalizer/internal/entity"
	"github.com/octobees/personalizer/internal/store"
)

// ErrPitchNotFound is returned when no generated output exists for an identifier.
var ErrPitchNotFound = errors.New("pitch not found")

// PitchesRepository persists generated outputs. Records are write-once.
type PitchesRepository interface {
	FindByIdentifier(ctx context.Context, id entity.Identifier) (*entity.Pitch, error)
	Create(ctx context.Context, id entity.Identifier, pitch *entity.Pitch) error
}

// DocumentPitchesRepository implements PitchesRepository on a document store.
type DocumentPitchesRepository struct {
	coll store.Collection
}

// NewDocumentPitchesRepository binds the repository to the pitches collection of s.
func NewDocumentPitchesRepository(s store.Store) *DocumentPitchesRepository {
	return &DocumentPitchesRepository{coll: s.Collection(store.CollectionPitches)}
}

// FindByIdentifier fetches the cached output for id.
func (r *DocumentPitchesRepository) FindByIdentifier(ctx context.Context, id entity.Identifier) (*entity.Pitch, error) {
	var pitch entity.Pitch
	if err := r.coll.FindOne(ctx, keyFor(id), &pitch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPitchNotFound
		}
		return nil, fmt.Errorf("find pitch by %s: %w", id.Kind, err)
	}
	return &pitch, nil
}

// Create inserts a new output. It fails with ErrDuplicate when one already exists.
func (r *DocumentPitchesRepository) Create(ctx context.Context, id entity.Identifier, pitch *entity.Pitch) error {
	if err := r.coll.InsertOne(ctx, keyFor(id), pitch); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert pitch: %w", err)
	}
	return nil
}
