// Package keylock provides striped per-key mutexes. Byte stores without
// native transactions (ristretto, bigcache, files) wrap their
// read-modify-write cycle in the stripe owning the key so concurrent
// updaters of the same key serialize while unrelated keys proceed.
package keylock

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

type Striped struct {
	mus []sync.Mutex
}

// New returns a lock set with at least n stripes, rounded up to a power of
// two so stripe selection is a mask. n <= 0 selects 256.
func New(n int) *Striped {
	if n <= 0 {
		n = 256
	}
	size := 1
	for size < n {
		size <<= 1
	}
	return &Striped{mus: make([]sync.Mutex, size)}
}

// Lock acquires the stripe for key and returns its release function.
//
//	unlock := locks.Lock(key)
//	defer unlock()
func (s *Striped) Lock(key string) func() {
	mu := &s.mus[xxhash.Sum64String(key)&uint64(len(s.mus)-1)]
	mu.Lock()
	return mu.Unlock
}

// Stripes reports the stripe count.
func (s *Striped) Stripes() int { return len(s.mus) }
