// Package redis backs the snapshot store with Redis. Snapshots are codec
// encoded and wire framed; Write runs an optimistic WATCH transaction so
// concurrent updaters of one key serialize through Redis itself and replicas
// of the consuming service stay consistent.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/snapmut/codec"
	"github.com/unkn0wn-root/snapmut/internal/wire"
	"github.com/unkn0wn-root/snapmut/store"
)

var ErrNilClient = errors.New("redis store: nil client")

const defaultMaxRetries = 16

type Store struct {
	rdb         goredis.UniversalClient
	codec       codec.Codec[any]
	ttl         time.Duration
	maxRetries  int
	closeClient bool
}

var _ store.Store = (*Store)(nil)

type Config struct {
	Client goredis.UniversalClient

	// Codec serializes snapshots. nil => codec.JSON[any].
	Codec codec.Codec[any]

	// TTL bounds every entry's lifetime; <= 0 means no expiry.
	TTL time.Duration

	// MaxRetries caps the optimistic transaction retry loop when concurrent
	// writers keep touching the same key. 0 => 16.
	MaxRetries int

	// CloseClient releases the client on Close. Set true only if this store
	// exclusively owns the client.
	CloseClient bool
}

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	s := &Store{
		rdb:         cfg.Client,
		codec:       cfg.Codec,
		ttl:         cfg.TTL,
		maxRetries:  cfg.MaxRetries,
		closeClient: cfg.CloseClient,
	}
	if s.codec == nil {
		s.codec = codec.JSON[any]{}
	}
	if s.maxRetries <= 0 {
		s.maxRetries = defaultMaxRetries
	}
	if s.ttl < 0 {
		s.ttl = 0
	}
	return s, nil
}

func (s *Store) Read(ctx context.Context, key string) (any, bool, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	snap, ok := s.decode(ctx, key, raw)
	return snap, ok, nil
}

// decode unwraps and decodes raw entry bytes. Corrupt or undecodable
// entries are deleted (self-heal) and reported as a miss.
func (s *Store) decode(ctx context.Context, key string, raw []byte) (any, bool) {
	payload, err := wire.Decode(raw)
	if err != nil {
		_ = s.rdb.Del(ctx, key).Err()
		return nil, false
	}
	snap, err := s.codec.Decode(payload)
	if err != nil {
		_ = s.rdb.Del(ctx, key).Err()
		return nil, false
	}
	return snap, true
}

// Write runs apply inside a WATCH/MULTI/EXEC cycle. When another writer
// races the key, the transaction aborts with TxFailedErr and the whole
// cycle retries with the fresh snapshot, up to MaxRetries attempts.
func (s *Store) Write(ctx context.Context, key string, apply store.Apply) error {
	txf := func(tx *goredis.Tx) error {
		var snap any
		ok := false

		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == goredis.Nil:
			// absent
		case err != nil:
			return err
		default:
			if payload, werr := wire.Decode(raw); werr == nil {
				if v, derr := s.codec.Decode(payload); derr == nil {
					snap, ok = v, true
				}
			}
			// corrupt entries read as absent; the write below replaces them
		}

		next, err := apply(snap, ok)
		if err != nil {
			return err
		}

		payload, err := s.codec.Encode(next)
		if err != nil {
			return fmt.Errorf("redis store: encode %q: %w", key, err)
		}

		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, key, wire.Encode(payload), s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue // another writer won; re-read and retry
		}
		if errors.Is(err, store.ErrSkip) {
			return nil
		}
		return err
	}
	return fmt.Errorf("redis store: write %q: contention persisted after %d attempts", key, s.maxRetries)
}

func (s *Store) Invalidate(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Store) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
