// Package store defines the snapshot store abstraction the mutation layer
// runs against.
//
// A Store holds one snapshot per key and applies every mutation through a
// single read-modify-write callback. Implementations MUST apply Write's
// updater atomically with respect to other Writes of the same key: two
// concurrent mutations of one entry serialize through the store (a lock, a
// transaction, an optimistic retry loop), never through the caller. The
// ordering of concurrent Writes is whatever the store's own serialization
// yields.
//
// Snapshots returned by Read or passed to an updater MUST be treated as
// immutable by callers; mutation code derives new snapshots and returns
// them. Stores that hand out live references (in-process stores) rely on
// this contract.
package store

import (
	"context"
	"errors"
)

// ErrSkip aborts a Write without storing anything. An updater returns it
// (wrapped or bare) when the entry should be left exactly as found, for
// example a delete against a key with no snapshot. Write swallows it and
// returns nil.
var ErrSkip = errors.New("snapmut: skip write")

// Apply computes the next snapshot from the current one. ok is false when
// the key has no snapshot, in which case snap is nil. Returning an error
// aborts the write; the error surfaces from Write unchanged except for
// ErrSkip, which aborts silently.
type Apply func(snap any, ok bool) (any, error)

// Store is a keyed snapshot store with atomic read-modify-write updates.
type Store interface {
	// Read returns the current snapshot. (nil, false, nil) means the key
	// holds nothing; errors are transport or decode failures.
	Read(ctx context.Context, key string) (snap any, ok bool, err error)

	// Write applies the updater to the key's current snapshot and stores
	// the result, atomically with respect to other Writes of the same key.
	Write(ctx context.Context, key string, apply Apply) error

	// Invalidate removes the key so the next consumer refetches
	// authoritative state. Removing an absent key is not an error.
	Invalidate(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
