// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/snapmut"
//	"github.com/unkn0wn-root/snapmut/hooks/async"
//	"github.com/unkn0wn-root/snapmut/sloghooks"
//	"github.com/unkn0wn-root/snapmut/store/memstore"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    AppliedEvery: 10, // sample logs: ~every 10th applied mutation
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	mut, _ := snapmut.NewMutator(snapmut.MutatorOptions{
//	    Store:  st, // e.g. memstore.New(memstore.Config{})
//	    Engine: eng,
//	    Hooks:  hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/snapmut"
)

type Hooks struct {
	inner snapmut.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ snapmut.Hooks = (*Hooks)(nil)

func New(inner snapmut.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) Applied(k string, v snapmut.Verb, d int) {
	h.try(func() { h.inner.Applied(k, v, d) })
}

func (h *Hooks) WriteFallback(k string, v snapmut.Verb, err error) {
	h.try(func() { h.inner.WriteFallback(k, v, err) })
}

func (h *Hooks) FallbackOutage(k string, v snapmut.Verb, we, ie error) {
	h.try(func() { h.inner.FallbackOutage(k, v, we, ie) })
}
