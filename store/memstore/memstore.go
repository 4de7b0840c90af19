// Package memstore is the in-process snapshot store. Snapshots are held as
// live values (no serialization), so readers and updaters see the exact
// graphs that were written and must honor the treat-as-immutable contract.
package memstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unkn0wn-root/snapmut/store"
)

type entry struct {
	snap any
	exp  time.Time // zero => no TTL
}

// Store keeps snapshots in a mutex-guarded map. Write holds the write lock
// across the whole updater call, which serializes concurrent mutations of
// every key; updaters are pure snapshot transforms, so the hold time is the
// transform cost.
type Store struct {
	mu sync.RWMutex
	m  map[string]entry

	ttl    time.Duration
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
}

var _ store.Store = (*Store)(nil)

type Config struct {
	// DefaultTTL bounds every entry's lifetime. 0 disables expiry.
	DefaultTTL time.Duration
	// CleanupInterval starts a background janitor that prunes expired
	// entries. 0 disables the janitor; expired entries are then dropped
	// lazily when read.
	CleanupInterval time.Duration
}

func New(cfg Config) *Store {
	s := &Store{
		m:   make(map[string]entry),
		ttl: cfg.DefaultTTL,
	}
	if cfg.CleanupInterval > 0 && cfg.DefaultTTL > 0 {
		s.ticker = time.NewTicker(cfg.CleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.prune(time.Now())
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *Store) Read(_ context.Context, key string) (any, bool, error) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if expired(e, time.Now()) {
		s.mu.Lock()
		if cur, ok := s.m[key]; ok && expired(cur, time.Now()) {
			delete(s.m, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.snap, true, nil
}

func (s *Store) Write(_ context.Context, key string, apply store.Apply) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[key]
	if ok && expired(e, now) {
		delete(s.m, key)
		e, ok = entry{}, false
	}

	next, err := apply(e.snap, ok)
	if err != nil {
		if errors.Is(err, store.ErrSkip) {
			return nil
		}
		return err
	}

	var exp time.Time
	if s.ttl > 0 {
		exp = now.Add(s.ttl)
	}
	s.m[key] = entry{snap: next, exp: exp}
	return nil
}

func (s *Store) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

// Len reports the number of live entries, expired ones included until the
// janitor or a read prunes them.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *Store) prune(now time.Time) {
	s.mu.Lock()
	for k, e := range s.m {
		if expired(e, now) {
			delete(s.m, k)
		}
	}
	s.mu.Unlock()
}

func (s *Store) Close(_ context.Context) error {
	if s.stopCh != nil {
		close(s.stopCh)
		if s.ticker != nil {
			s.ticker.Stop() // stop ticker before waiting
		}
		s.wg.Wait()
	}
	return nil
}

func expired(e entry, now time.Time) bool {
	return !e.exp.IsZero() && now.After(e.exp)
}
