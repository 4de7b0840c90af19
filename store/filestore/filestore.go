// Package filestore backs the snapshot store with a filesystem through
// afero. One file per key under <root>/<hh>/<hash>.snap, where hash is the
// xxhash of the key and hh its first two hex digits, keeping directories
// shallow. Writes stage a temp file in the shard directory and rename it
// into place, so the final name never holds a partial frame. Wire framing
// rejects torn or foreign files on read and the entry self-heals by
// deletion.
//
// An afero.MemMapFs makes the store a fast fake in tests; the OS filesystem
// makes it a restart-surviving cache.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/unkn0wn-root/snapmut/codec"
	"github.com/unkn0wn-root/snapmut/internal/keylock"
	"github.com/unkn0wn-root/snapmut/internal/wire"
	"github.com/unkn0wn-root/snapmut/store"
)

type Store struct {
	fs    afero.Fs
	root  string
	codec codec.Codec[any]
	locks *keylock.Striped
}

var _ store.Store = (*Store)(nil)

type Config struct {
	// Fs is the backing filesystem. nil => the OS filesystem.
	Fs afero.Fs

	// Root directory for snapshot files. Required; created on first write.
	Root string

	// Codec serializes snapshots. nil => codec.JSON[any].
	Codec codec.Codec[any]

	// LockStripes sizes the per-key write lock set. 0 => 256.
	LockStripes int
}

func New(cfg Config) (*Store, error) {
	if cfg.Root == "" {
		return nil, errors.New("filestore: root is required")
	}
	s := &Store{
		fs:    cfg.Fs,
		root:  cfg.Root,
		codec: cfg.Codec,
		locks: keylock.New(cfg.LockStripes),
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	if s.codec == nil {
		s.codec = codec.JSON[any]{}
	}
	return s, nil
}

// path maps a key to <root>/<hh>/<hash>.snap. Keys never touch the
// filesystem directly, so arbitrary identities (URLs, query strings) are
// safe.
func (s *Store) path(key string) string {
	h := strconv.FormatUint(xxhash.Sum64String(key), 16)
	for len(h) < 16 {
		h = "0" + h
	}
	return filepath.Join(s.root, h[:2], h+".snap")
}

func (s *Store) Read(_ context.Context, key string) (any, bool, error) {
	snap, ok, err := s.read(s.path(key))
	return snap, ok, err
}

func (s *Store) read(p string) (any, bool, error) {
	raw, err := afero.ReadFile(s.fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	payload, err := wire.Decode(raw)
	if err != nil {
		_ = s.fs.Remove(p) // self-heal torn or foreign file
		return nil, false, nil
	}
	snap, err := s.codec.Decode(payload)
	if err != nil {
		_ = s.fs.Remove(p)
		return nil, false, nil
	}
	return snap, true, nil
}

func (s *Store) Write(_ context.Context, key string, apply store.Apply) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	p := s.path(key)
	snap, ok, err := s.read(p)
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
		return fmt.Errorf("filestore: encode %q: %w", key, err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	// stage next to the final name, then rename: readers must never see a
	// partial frame under p. Same-key writers hold the stripe lock, so the
	// temp name cannot collide.
	tmp := p + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, wire.Encode(payload), 0o644); err != nil {
		return err
	}
	if err := s.fs.Rename(tmp, p); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return nil
}

func (s *Store) Invalidate(_ context.Context, key string) error {
	err := s.fs.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Store) Close(_ context.Context) error { return nil }
