// Package mongostore implements the document store gateway on MongoDB.
package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/octobees/personalizer/internal/store"
)

// Store wraps a connected client and one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New binds client to the named database.
func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// EnsureIndexes creates one unique partial index per identifier field on every collection,
// so the email and LinkedIn URL key spaces stay disjoint and at most one record exists per key.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, name := range store.KnownCollections() {
		models := make([]mongo.IndexModel, 0, 2)
		for _, field := range []string{"email", "linkedInUrl"} {
			models = append(models, mongo.IndexModel{
				Keys: bson.D{{Key: field, Value: 1}},
				Options: options.Index().
					SetName(field + "_unique").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{field: bson.M{"$exists": true}}),
			})
		}
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// Collection implements store.Store.
func (s *Store) Collection(name string) store.Collection {
	return &collection{coll: s.db.Collection(name)}
}

// ListCollections implements store.Store.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return names, nil
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close implements store.Store.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type collection struct {
	coll *mongo.Collection
}

func filterFor(key store.Key) (bson.M, error) {
	if err := store.ValidateKeyField(key.Field); err != nil {
		return nil, err
	}
	return bson.M{key.Field: key.Value}, nil
}

func (c *collection) FindOne(ctx context.Context, key store.Key, out any) error {
	filter, err := filterFor(key)
	if err != nil {
		return err
	}

	var doc bson.M
	err = c.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s: %w", c.coll.Name(), err)
	}

	// Decode through JSON so nested payloads come back as map[string]any and []any,
	// the same shapes the SQL backends produce.
	raw, err := json.Marshal(plain(doc))
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return store.DecodeDocument(raw, out)
}

// plain converts driver container and scalar types to their encoding/json equivalents.
func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		return plainMap(t)
	case map[string]any:
		return plainMap(t)
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		return plainSlice(t)
	case []any:
		return plainSlice(t)
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, item := range m {
		out[k] = plain(item)
	}
	return out
}

func plainSlice(items []any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = plain(item)
	}
	return out
}

func (c *collection) InsertOne(ctx context.Context, key store.Key, doc any) error {
	if err := store.ValidateKeyField(key.Field); err != nil {
		return err
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	fields[key.Field] = key.Value

	if _, err := c.coll.InsertOne(ctx, fields); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c *collection) UpdateOne(ctx context.Context, key store.Key, update store.Update, upsert bool) error {
	filter, err := filterFor(key)
	if err != nil {
		return err
	}

	doc := bson.M{}
	if len(update.Set) > 0 {
		doc["$set"] = update.Set
	}
	if upsert && len(update.SetOnInsert) > 0 {
		doc["$setOnInsert"] = update.SetOnInsert
	}
	if len(doc) == 0 {
		return nil
	}

	res, err := c.coll.UpdateOne(ctx, filter, doc, options.Update().SetUpsert(upsert))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("update %s: %w", c.coll.Name(), err)
	}
	if !upsert && res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

var _ store.Store = (*Store)(nil)
