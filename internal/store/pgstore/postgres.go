// Package pgstore implements the document store gateway on PostgreSQL, one JSONB
// document per row.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/octobees/personalizer/internal/store"
)

// Pool is the subset of pgxpool.Pool used by the store.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// Store keeps each collection in its own table.
type Store struct {
	pool Pool
}

// New wraps pool.
func New(pool Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the collection tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, name := range store.KnownCollections() {
		table, _ := store.TableName(name)
		_, err := s.pool.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            key_field  TEXT NOT NULL,
            key_value  TEXT NOT NULL,
            document   JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
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
	return &collection{pool: s.pool, table: table, err: err}
}

// ListCollections returns the known collections whose tables exist.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name`)
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
	return s.pool.Ping(ctx)
}

// Close implements store.Store.
func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

type collection struct {
	pool  Pool
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

	row := c.pool.QueryRow(ctx, fmt.Sprintf(`SELECT document FROM %s WHERE key_field = $1 AND key_value = $2`, c.table), key.Field, key.Value)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return fmt.Errorf("query %s: %w", c.table, err)
	}
	return store.DecodeDocument(raw, out)
}

func (c *collection) InsertOne(ctx context.Context, key store.Key, doc any) error {
	if err := c.check(key); err != nil {
		return err
	}

	raw, err := store.EncodeDocument(key, doc)
	if err != nil {
		return err
	}

	_, err = c.pool.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (key_field, key_value, document) VALUES ($1, $2, $3::jsonb)`, c.table), key.Field, key.Value, raw)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		}
		return fmt.Errorf("insert %s: %w", c.table, err)
	}
	return nil
}

func (c *collection) UpdateOne(ctx context.Context, key store.Key, update store.Update, upsert bool) error {
	if err := c.check(key); err != nil {
		return err
	}

	patch, err := store.EncodePatch(nil, update.Set)
	if err != nil {
		return err
	}

	if !upsert {
		cmd, err := c.pool.Exec(ctx, fmt.Sprintf(`
        UPDATE %s SET document = document || $3::jsonb, updated_at = NOW()
        WHERE key_field = $1 AND key_value = $2`, c.table), key.Field, key.Value, patch)
		if err != nil {
			return fmt.Errorf("update %s: %w", c.table, err)
		}
		if cmd.RowsAffected() == 0 {
			return store.ErrNotFound
		}
		return nil
	}

	inserted, err := store.EncodePatch(&key, update.SetOnInsert, update.Set)
	if err != nil {
		return err
	}

	_, err = c.pool.Exec(ctx, fmt.Sprintf(`
        INSERT INTO %[1]s (key_field, key_value, document)
        VALUES ($1, $2, $3::jsonb)
        ON CONFLICT (key_field, key_value)
        DO UPDATE SET document = %[1]s.document || $4::jsonb, updated_at = NOW()`, c.table),
		key.Field, key.Value, inserted, patch)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", c.table, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ store.Store = (*Store)(nil)
