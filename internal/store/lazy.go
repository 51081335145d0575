package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by a Lazy store after Close.
var ErrClosed = errors.New("store closed")

// OpenFunc dials a backend.
type OpenFunc func(ctx context.Context) (Store, error)

// Lazy connects on first use and shares that connection with every later caller.
// A failed dial is not remembered, so the next caller tries again.
type Lazy struct {
	open OpenFunc

	mu     sync.Mutex
	conn   Store
	closed bool
}

// NewLazy wraps open.
func NewLazy(open OpenFunc) *Lazy {
	return &Lazy{open: open}
}

// Get returns the shared connection, dialing it if needed.
func (l *Lazy) Get(ctx context.Context) (Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}
	if l.conn != nil {
		return l.conn, nil
	}

	conn, err := l.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	l.conn = conn
	return conn, nil
}

// Collection returns a handle that resolves the connection on each call.
func (l *Lazy) Collection(name string) Collection {
	return &lazyCollection{lazy: l, name: name}
}

// ListCollections implements Store.
func (l *Lazy) ListCollections(ctx context.Context) ([]string, error) {
	conn, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return conn.ListCollections(ctx)
}

// Ping implements Store.
func (l *Lazy) Ping(ctx context.Context) error {
	conn, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return conn.Ping(ctx)
}

// Close releases the connection if one was made.
func (l *Lazy) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close(ctx)
	l.conn = nil
	return err
}

type lazyCollection struct {
	lazy *Lazy
	name string
}

func (c *lazyCollection) resolve(ctx context.Context) (Collection, error) {
	conn, err := c.lazy.Get(ctx)
	if err != nil {
		return nil, err
	}
	return conn.Collection(c.name), nil
}

func (c *lazyCollection) FindOne(ctx context.Context, key Key, out any) error {
	coll, err := c.resolve(ctx)
	if err != nil {
		return err
	}
	return coll.FindOne(ctx, key, out)
}

func (c *lazyCollection) InsertOne(ctx context.Context, key Key, doc any) error {
	coll, err := c.resolve(ctx)
	if err != nil {
		return err
	}
	return coll.InsertOne(ctx, key, doc)
}

func (c *lazyCollection) UpdateOne(ctx context.Context, key Key, update Update, upsert bool) error {
	coll, err := c.resolve(ctx)
	if err != nil {
		return err
	}
	return coll.UpdateOne(ctx, key, update, upsert)
}

var _ Store = (*Lazy)(nil)
