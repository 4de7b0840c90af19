package snapmut

// Hooks lightweight callbacks for high-signal mutation events.
// Implementations MUST be cheap and non-blocking; the mutator calls them
// inline on its write paths. Wrap with hooks/async to decouple slow sinks.
type Hooks interface {
	// A mutation was applied and stored. delta is the item-count change
	// the transform produced (+1 for add, -n for delete, 0 for update).
	Applied(key string, verb Verb, delta int)

	// The store's write step failed and the entry was invalidated instead,
	// so consumers refetch authoritative state.
	WriteFallback(key string, verb Verb, err error)

	// Both the write and the fallback invalidate failed (likely backend
	// outage); the entry may still hold a pre-mutation snapshot.
	FallbackOutage(key string, verb Verb, writeErr, invalidateErr error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Applied(string, Verb, int)                 {}
func (NopHooks) WriteFallback(string, Verb, error)         {}
func (NopHooks) FallbackOutage(string, Verb, error, error) {}
