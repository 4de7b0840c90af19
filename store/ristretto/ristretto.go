// Package ristretto backs the snapshot store with dgraph-io/ristretto.
// Entries are codec encoded and wire framed; a striped key lock serializes
// updaters per key since ristretto has no transactions, and every Write
// drains ristretto's buffered set pipeline before unlocking so the next
// updater on the same key reads it.
//
// Admission is best-effort: when ristretto refuses a write under pressure,
// the stale entry is dropped instead, so readers refetch rather than see a
// snapshot the mutation missed.
package ristretto

import (
	"bytes"
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/snapmut/codec"
	"github.com/unkn0wn-root/snapmut/internal/keylock"
	"github.com/unkn0wn-root/snapmut/internal/wire"
	"github.com/unkn0wn-root/snapmut/store"
)

type Store struct {
	c     *rc.Cache
	codec codec.Codec[any]
	ttl   time.Duration
	locks *keylock.Striped
}

var _ store.Store = (*Store)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool

	// Codec serializes snapshots. nil => codec.JSON[any].
	Codec codec.Codec[any]

	// TTL bounds every entry's lifetime; <= 0 means no expiry.
	TTL time.Duration

	// LockStripes sizes the per-key write lock set. 0 => 256.
	LockStripes int
}

func New(cfg Config) (*Store, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto store: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	s := &Store{
		c:     c,
		codec: cfg.Codec,
		ttl:   cfg.TTL,
		locks: keylock.New(cfg.LockStripes),
	}
	if s.codec == nil {
		s.codec = codec.JSON[any]{}
	}
	if s.ttl < 0 {
		s.ttl = 0
	}
	return s, nil
}

func (s *Store) Read(_ context.Context, key string) (any, bool, error) {
	snap, ok := s.read(key)
	return snap, ok, nil
}

func (s *Store) read(key string) (any, bool) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false
	}
	raw, _ := v.([]byte)
	if raw == nil {
		// self-heal: drop unexpected entry shape
		s.c.Del(key)
		return nil, false
	}
	payload, err := wire.Decode(raw)
	if err != nil {
		s.c.Del(key)
		return nil, false
	}
	snap, err := s.codec.Decode(payload)
	if err != nil {
		s.c.Del(key)
		return nil, false
	}
	return snap, true
}

func (s *Store) Write(_ context.Context, key string, apply store.Apply) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	snap, ok := s.read(key)
	next, err := apply(snap, ok)
	if err != nil {
		if errors.Is(err, store.ErrSkip) {
			return nil
		}
		return err
	}

	payload, err := s.codec.Encode(next)
	if err != nil {
		return err
	}
	raw := wire.Encode(payload)
	s.c.SetWithTTL(key, raw, int64(len(raw)), s.ttl)
	// sets ride an async admission buffer; drain it while the stripe lock
	// is still held so the next updater on this key reads this write
	s.c.Wait()
	v, hit := s.c.Get(key)
	if b, _ := v.([]byte); !hit || !bytes.Equal(b, raw) {
		// refused under pressure; drop the stale entry so readers refetch
		s.c.Del(key)
	}
	return nil
}

func (s *Store) Invalidate(_ context.Context, key string) error {
	s.c.Del(key)
	return nil
}

func (s *Store) Close(_ context.Context) error {
	s.c.Wait()
	s.c.Close()
	return nil
}

// Metrics exposes ristretto's own counters when Config.Metrics was set.
func (s *Store) Metrics() *rc.Metrics { return s.c.Metrics }
