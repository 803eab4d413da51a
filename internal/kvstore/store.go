// Package kvstore defines the key-value persistence contract the rest of the
// backend is built on. Values are opaque JSON documents; typed access lives
// one layer up. Every backend also carries a change feed: a write made
// through one handle is announced to every other handle watching the store,
// but never echoed back to the writer.
package kvstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Event announces that a key changed (set or deleted) through some other
// handle of the same store.
type Event struct {
	Key string
}

type Store interface {
	// Get returns the stored document for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores the document under key, overwriting any previous value.
	// Concurrent writers race with last-writer-wins semantics.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists every key with the given prefix. Order is unspecified.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Watch returns the change feed for this handle. Events for writes made
	// through this same handle are filtered out. The channel closes when the
	// context is cancelled or the store shuts down. Slow consumers may miss
	// events; the feed is a refresh hint, not a replication log.
	Watch(ctx context.Context) (<-chan Event, error)
	// Close releases the handle and any backend resources it owns.
	Close(ctx context.Context) error
}
