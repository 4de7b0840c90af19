package snapmut

// Position selects where Add splices the new item into the items array.
type Position int

const (
	Start Position = iota // default: prepend
	End
)

// Verb names a mutation for hooks, logs, and metric labels.
type Verb string

const (
	VerbAdd     Verb = "add"
	VerbUpdate  Verb = "update"
	VerbDelete  Verb = "delete"
	VerbReplace Verb = "replace"
	VerbClear   Verb = "clear"
)

// MatchFunc selects items for UpdateWhere / DeleteWhere. A nil MatchFunc
// matches nothing.
type MatchFunc func(item any) bool

// Engine is the pure snapshot-transform API. Every operation returns a new
// snapshot and never mutates its arguments; untouched subtrees and items are
// shared by reference with the input. A nil snapshot reads as empty and is
// synthesized (from Seed, or a fresh container) on the first write.
//
// Engines are stateless and safe for concurrent use.
type Engine interface {
	// Items extracts the configured items array; never nil-panics, missing
	// or non-array data reads as empty.
	Items(snap any) []any
	// WithItems returns a new snapshot carrying items at the configured
	// location.
	WithItems(snap any, items []any) any

	// Add splices item at pos and bumps pagination counters by one.
	Add(snap, item any, pos Position) any

	// Update shallow-merges partial into every item whose key equals
	// partial's key. ErrMissingKey when the extractor finds no key on
	// partial. Zero matches returns snap unchanged.
	Update(snap, partial any) (any, error)
	// UpdateWhere shallow-merges partial into every item match selects.
	UpdateWhere(snap, partial any, match MatchFunc) any

	// Delete removes items matching item's key; ErrMissingKey when the
	// extractor finds no key on item. Removing nothing is a silent no-op.
	Delete(snap, item any) (any, error)
	// DeleteKey removes items whose key equals key.
	DeleteKey(snap, key any) any
	// DeleteWhere removes every item match selects.
	DeleteWhere(snap any, match MatchFunc) any

	// Replace substitutes the entire snapshot, bypassing items and
	// pagination logic.
	Replace(snap, next any) any

	// Clear empties the items array and zeroes pagination counters.
	Clear(snap any) any
}

// Options configure an Engine.
// The zero value is usable: the snapshot itself is the items array and
// items are keyed by their "id" field.
type Options struct {
	// ItemsPath is the dot path to the items array inside a snapshot
	// ("data.content"). Empty means the snapshot is the array itself.
	// Mutually exclusive with Accessor.
	ItemsPath string

	// Accessor plugs caller-supplied extract/rebuild functions in place of
	// path addressing, for snapshots dot paths cannot describe.
	Accessor ItemsAccessor

	// KeyOf extracts the identity of an item. nil => DefaultKey ("id").
	KeyOf KeyFunc

	// Paging describes where pagination counters live. nil disables
	// counter maintenance. Counters write through dot paths into the
	// snapshot object, so Paging requires ItemsPath: array-shaped
	// snapshots and custom Accessors cannot carry counters.
	Paging *Paging

	// Seed is the snapshot scaffold used when a mutation runs against a
	// missing snapshot (path mode only). nil => a fresh empty object.
	Seed any
}

func New(opts Options) (Engine, error) {
	return newEngine(opts)
}
