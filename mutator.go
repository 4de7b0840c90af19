package snapmut

import (
	"context"
	"errors"
	"fmt"

	"github.com/unkn0wn-root/snapmut/store"
)

// MutatorOptions configure a Mutator.
type MutatorOptions struct {
	// Store is the snapshot store mutations run against. Required.
	Store store.Store
	// Engine performs the snapshot transforms. Required.
	Engine Engine
	// Logger for mutation outcomes. nil => NopLogger.
	Logger Logger
	// Hooks observe applied mutations and fallbacks. nil => NopHooks.
	Hooks Hooks
}

// Mutator applies engine transforms to stored snapshots. Each mutation runs
// as one atomic read-modify-write against the store; when a write cannot be
// completed the entry is invalidated instead, so consumers refetch
// authoritative state rather than read a snapshot the mutation never
// reached.
//
// Mutators are safe for concurrent use.
type Mutator struct {
	store store.Store
	eng   Engine
	log   Logger
	hooks Hooks
}

func NewMutator(opts MutatorOptions) (*Mutator, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("snapmut: store is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("snapmut: engine is required")
	}
	return &Mutator{
		store: opts.Store,
		eng:   opts.Engine,
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
		hooks: coalesce[Hooks](opts.Hooks, NopHooks{}),
	}, nil
}

// Get reads the raw snapshot under key.
func (m *Mutator) Get(ctx context.Context, key string) (any, bool, error) {
	return m.store.Read(ctx, key)
}

// Items reads the snapshot under key and extracts its items array. A
// missing snapshot reads as empty.
func (m *Mutator) Items(ctx context.Context, key string) ([]any, error) {
	snap, ok, err := m.store.Read(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	return m.eng.Items(snap), nil
}

// Add splices item into the snapshot under key. A missing snapshot is
// synthesized so the item is not lost.
func (m *Mutator) Add(ctx context.Context, key string, item any, pos Position) error {
	return m.apply(ctx, key, VerbAdd, func(snap any, _ bool) (any, error) {
		return m.eng.Add(snap, item, pos), nil
	})
}

// Update merges partial into every stored item sharing its key.
// ErrMissingKey when partial carries none.
func (m *Mutator) Update(ctx context.Context, key string, partial any) error {
	return m.apply(ctx, key, VerbUpdate, func(snap any, _ bool) (any, error) {
		return m.eng.Update(snap, partial)
	})
}

// UpdateWhere merges partial into every stored item match selects.
func (m *Mutator) UpdateWhere(ctx context.Context, key string, partial any, match MatchFunc) error {
	return m.apply(ctx, key, VerbUpdate, func(snap any, _ bool) (any, error) {
		return m.eng.UpdateWhere(snap, partial, match), nil
	})
}

// Delete removes stored items sharing item's key. ErrMissingKey when item
// carries none.
func (m *Mutator) Delete(ctx context.Context, key string, item any) error {
	return m.apply(ctx, key, VerbDelete, func(snap any, _ bool) (any, error) {
		return m.eng.Delete(snap, item)
	})
}

// DeleteKey removes stored items whose key equals itemKey.
func (m *Mutator) DeleteKey(ctx context.Context, key string, itemKey any) error {
	return m.apply(ctx, key, VerbDelete, func(snap any, _ bool) (any, error) {
		return m.eng.DeleteKey(snap, itemKey), nil
	})
}

// DeleteWhere removes every stored item match selects.
func (m *Mutator) DeleteWhere(ctx context.Context, key string, match MatchFunc) error {
	return m.apply(ctx, key, VerbDelete, func(snap any, _ bool) (any, error) {
		return m.eng.DeleteWhere(snap, match), nil
	})
}

// Replace substitutes the whole snapshot under key, present or not.
func (m *Mutator) Replace(ctx context.Context, key string, next any) error {
	return m.apply(ctx, key, VerbReplace, func(snap any, _ bool) (any, error) {
		return m.eng.Replace(snap, next), nil
	})
}

// Clear empties the items array under key and zeroes pagination counters.
func (m *Mutator) Clear(ctx context.Context, key string) error {
	return m.apply(ctx, key, VerbClear, func(snap any, _ bool) (any, error) {
		return m.eng.Clear(snap), nil
	})
}

// Invalidate drops the snapshot under key.
func (m *Mutator) Invalidate(ctx context.Context, key string) error {
	return m.store.Invalidate(ctx, key)
}

// apply runs one transform as a store write and enforces the fallback
// policy: a failed write degrades to an invalidate so readers refetch, and
// only a failed invalidate on top of that surfaces to the caller.
func (m *Mutator) apply(ctx context.Context, key string, verb Verb, fn store.Apply) error {
	var (
		delta   int
		skipped bool
	)
	err := m.store.Write(ctx, key, func(snap any, ok bool) (any, error) {
		before := len(m.eng.Items(snap))
		next, err := fn(snap, ok)
		if err != nil {
			return nil, err
		}
		if !ok && next == nil {
			// no snapshot and the transform produced none: nothing to store
			skipped = true
			return nil, store.ErrSkip
		}
		delta = len(m.eng.Items(next)) - before
		return next, nil
	})
	if err == nil {
		if skipped {
			m.log.Debug("mutation skipped (no snapshot)", Fields{"key": key, "verb": verb})
			return nil
		}
		m.hooks.Applied(key, verb, delta)
		return nil
	}
	if errors.Is(err, ErrMissingKey) {
		// configuration bug, not a store failure: the entry is untouched
		return err
	}

	m.log.Warn("mutation write failed; falling back to invalidate", Fields{"key": key, "verb": verb, "err": err})
	m.hooks.WriteFallback(key, verb, err)
	if ierr := m.store.Invalidate(ctx, key); ierr != nil {
		m.log.Error("fallback invalidate failed; entry may be stale", Fields{"key": key, "verb": verb, "err": ierr})
		m.hooks.FallbackOutage(key, verb, err, ierr)
		return &FallbackError{Key: key, Verb: verb, WriteErr: err, InvalidateErr: ierr}
	}
	m.log.Debug("fallback invalidate succeeded", Fields{"key": key, "verb": verb})
	return nil
}
