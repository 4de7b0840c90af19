// Package bigcache backs the snapshot store with allegro/bigcache. Entries
// are codec encoded and wire framed; a striped key lock serializes updaters
// per key. BigCache has no per-entry TTL, the global LifeWindow bounds
// every entry.
package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/snapmut/codec"
	"github.com/unkn0wn-root/snapmut/internal/keylock"
	"github.com/unkn0wn-root/snapmut/internal/wire"
	"github.com/unkn0wn-root/snapmut/store"
)

type Store struct {
	c     *bc.BigCache
	codec codec.Codec[any]
	locks *keylock.Striped
}

var _ store.Store = (*Store)(nil)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited

	// Codec serializes snapshots. nil => codec.JSON[any].
	Codec codec.Codec[any]

	// LockStripes sizes the per-key write lock set. 0 => 256.
	LockStripes int
}

func New(cfg Config) (*Store, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	s := &Store{
		c:     c,
		codec: cfg.Codec,
		locks: keylock.New(cfg.LockStripes),
	}
	if s.codec == nil {
		s.codec = codec.JSON[any]{}
	}
	return s, nil
}

func (s *Store) Read(_ context.Context, key string) (any, bool, error) {
	snap, ok, err := s.read(key)
	return snap, ok, err
}

func (s *Store) read(key string) (any, bool, error) {
	raw, err := s.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	payload, err := wire.Decode(raw)
	if err != nil {
		_ = s.c.Delete(key) // self-heal corrupt
		return nil, false, nil
	}
	snap, err := s.codec.Decode(payload)
	if err != nil {
		_ = s.c.Delete(key)
		return nil, false, nil
	}
	return snap, true, nil
}

func (s *Store) Write(_ context.Context, key string, apply store.Apply) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	snap, ok, err := s.read(key)
	if err != nil {
		return err
	}

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
	return s.c.Set(key, wire.Encode(payload))
}

func (s *Store) Invalidate(_ context.Context, key string) error {
	err := s.c.Delete(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (s *Store) Close(_ context.Context) error {
	return s.c.Close()
}
