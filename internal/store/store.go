// Package store is the document store gateway shared by the repositories.
//
// Documents are addressed by a single Key (field + value). Backends live in the
// mongostore, pgstore and sqlitestore subpackages.
package store

import (
	"context"
	"errors"
)

// Logical collection names.
const (
	CollectionContacts = "reverseContacts"
	CollectionPitches  = "chatOutputs"
)

var (
	// ErrNotFound is returned when no document matches a key.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when an insert collides with an existing key.
	ErrDuplicate = errors.New("document already exists")
	// ErrUnknownCollection is returned for collection names the backend does not manage.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Key identifies a document by one top-level field.
type Key struct {
	Field string
	Value string
}

// Update is a partial write. SetOnInsert is applied only when an upsert creates the document.
type Update struct {
	Set         map[string]any
	SetOnInsert map[string]any
}

// Collection is a handle on one named collection.
type Collection interface {
	// FindOne decodes the document matching key into out.
	FindOne(ctx context.Context, key Key, out any) error
	// InsertOne stores doc under key.
	InsertOne(ctx context.Context, key Key, doc any) error
	// UpdateOne applies update to the document matching key, creating it when upsert is set.
	UpdateOne(ctx context.Context, key Key, update Update, upsert bool) error
}

// Store is a connected document database.
type Store interface {
	Collection(name string) Collection
	ListCollections(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// KnownCollections lists the collections every backend provisions.
func KnownCollections() []string {
	return []string{CollectionContacts, CollectionPitches}
}

// TableName maps a collection to its SQL table name.
func TableName(collection string) (string, error) {
	switch collection {
	case CollectionContacts:
		return "reverse_contacts", nil
	case CollectionPitches:
		return "chat_outputs", nil
	default:
		return "", ErrUnknownCollection
	}
}
