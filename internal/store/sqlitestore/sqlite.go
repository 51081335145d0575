// Package sqlitestore implements the document store gateway on SQLite for
// single-node deployments and local development.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/octobees/personalizer/internal/store"
)

// Store keeps each collection in its own table with a JSON text column.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the collection tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, name := range store.KnownCollections() {
		table, _ := store.TableName(name)
		_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            key_field  TEXT NOT NULL,
            key_value  TEXT NOT NULL,
            document   TEXT NOT NULL,
            created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (key_field, key_value)
        )`, table))
		if err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return nil
}

// Collection implements store.Store.
func (s *Store) Collection(name string) store.Collection {
	table, err := store.TableName(name)
	return &collection{db: s.db, table: table, err: err}
}

// ListCollections returns the known collections whose tables exist.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	existing := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	var out []string
	for _, name := range store.KnownCollections() {
		table, _ := store.TableName(name)
		if existing[table] {
			out = append(out, name)
		}
	}
	return out, nil
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements store.Store.
func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

type collection struct {
	db    *sql.DB
	table string
	err   error
}

func (c *collection) check(key store.Key) error {
	if c.err != nil {
		return c.err
	}
	return store.ValidateKeyField(key.Field)
}

func (c *collection) FindOne(ctx context.Context, key store.Key, out any) error {
	if err := c.check(key); err != nil {
		return err
	}

	var raw string
	err := c.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT document FROM %s WHERE key_field = ? AND key_value = ?`, c.table), key.Field, key.Value).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query %s: %w", c.table, err)
	}
	return store.DecodeDocument([]byte(raw), out)
}

func (c *collection) InsertOne(ctx context.Context, key store.Key, doc any) error {
	if err := c.check(key); err != nil {
		return err
	}

	raw, err := store.EncodeDocument(key, doc)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (key_field, key_value, document) VALUES (?, ?, ?)`, c.table), key.Field, key.Value, string(raw))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		}
		return fmt.Errorf("insert %s: %w", c.table, err)
	}
	return nil
}

// UpdateOne merges top-level fields in Go; SQLite's json_patch would merge nested objects recursively.
func (c *collection) UpdateOne(ctx context.Context, key store.Key, update store.Update, upsert bool) error {
	if err := c.check(key); err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT document FROM %s WHERE key_field = ? AND key_value = ?`, c.table), key.Field, key.Value).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if !upsert {
			return store.ErrNotFound
		}
		doc, err := store.EncodePatch(&key, update.SetOnInsert, update.Set)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (key_field, key_value, document) VALUES (?, ?, ?)`, c.table), key.Field, key.Value, string(doc)); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
			}
			return fmt.Errorf("insert %s: %w", c.table, err)
		}
	case err != nil:
		return fmt.Errorf("query %s: %w", c.table, err)
	default:
		fields := map[string]any{}
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		doc, err := store.EncodePatch(nil, fields, update.Set)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET document = ?, updated_at = CURRENT_TIMESTAMP WHERE key_field = ? AND key_value = ?`, c.table), string(doc), key.Field, key.Value); err != nil {
			return fmt.Errorf("update %s: %w", c.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ store.Store = (*Store)(nil)
