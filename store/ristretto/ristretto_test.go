package ristretto

import (
	"context"
	"sync"
	"testing"

	"github.com/unkn0wn-root/snapmut/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{NumCounters: 10_000, MaxCost: 1 << 20, BufferItems: 64})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestNewRejectsZeroConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for zero config")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Write(ctx, "k", func(snap any, ok bool) (any, error) {
		if ok || snap != nil {
			t.Fatalf("first updater: snap=%v ok=%v, want absent", snap, ok)
		}
		return map[string]any{"n": float64(1)}, nil
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	snap, ok, err := s.Read(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if snap.(map[string]any)["n"] != float64(1) {
		t.Fatalf("unexpected snapshot: %v", snap)
	}

	// miss for unknown key
	if _, ok, err := s.Read(ctx, "nope"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
}

// TestSequentialWritesCompose chains read-modify-write updaters on one key;
// every updater must observe the value its predecessor stored even though
// ristretto applies sets through a buffered admission pipeline.
func TestSequentialWritesCompose(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const rounds = 200
	for i := 0; i < rounds; i++ {
		err := s.Write(ctx, "ctr", func(snap any, ok bool) (any, error) {
			n := float64(0)
			if ok {
				n = snap.(float64)
			}
			return n + 1, nil
		})
		if err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	snap, ok, err := s.Read(ctx, "ctr")
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if snap.(float64) != rounds {
		t.Fatalf("lost updates: got %v want %v", snap, rounds)
	}
}

func TestConcurrentWritesSerialize(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const workers = 8
	const rounds = 25

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				err := s.Write(ctx, "ctr", func(snap any, ok bool) (any, error) {
					n := float64(0)
					if ok {
						n = snap.(float64)
					}
					return n + 1, nil
				})
				if err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	snap, ok, err := s.Read(ctx, "ctr")
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if snap.(float64) != workers*rounds {
		t.Fatalf("lost updates: got %v want %v", snap, workers*rounds)
	}
}

func TestWriteSkipLeavesEntryUntouched(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// skip against an absent key creates nothing
	if err := s.Write(ctx, "k", func(any, bool) (any, error) {
		return nil, store.ErrSkip
	}); err != nil {
		t.Fatalf("Write skip: %v", err)
	}
	if _, ok, _ := s.Read(ctx, "k"); ok {
		t.Fatalf("skip must not create an entry")
	}

	// skip against a present key preserves the old value
	if err := s.Write(ctx, "k", func(any, bool) (any, error) { return "v1", nil }); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(ctx, "k", func(any, bool) (any, error) {
		return nil, store.ErrSkip
	}); err != nil {
		t.Fatalf("Write skip: %v", err)
	}
	if snap, _, _ := s.Read(ctx, "k"); snap != "v1" {
		t.Fatalf("skip must not replace the entry, got %v", snap)
	}
}

func TestInvalidateDropsEntry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Write(ctx, "k", func(any, bool) (any, error) { return "v", nil }); err != nil {
		t.Fatal(err)
	}
	if err := s.Invalidate(ctx, "k"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := s.Read(ctx, "k"); ok {
		t.Fatalf("entry survived invalidation")
	}
	// absent key is not an error
	if err := s.Invalidate(ctx, "k"); err != nil {
		t.Fatalf("Invalidate absent: %v", err)
	}
}
