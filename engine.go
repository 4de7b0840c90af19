package snapmut

import "fmt"

type engine struct {
	acc    ItemsAccessor
	keyOf  KeyFunc
	paging *Paging
}

var _ Engine = (*engine)(nil)

func newEngine(opts Options) (*engine, error) {
	if opts.Accessor != nil && opts.ItemsPath != "" {
		return nil, fmt.Errorf("snapmut: ItemsPath and Accessor are mutually exclusive")
	}
	if opts.Accessor != nil && opts.Seed != nil {
		return nil, fmt.Errorf("snapmut: Seed applies to path addressing only")
	}
	if opts.Accessor != nil && opts.Paging != nil {
		// counter paths write through dotpath into a map-shaped root; a
		// custom accessor's snapshot shape is opaque here and would be
		// clobbered by the first counter write
		return nil, fmt.Errorf("snapmut: Paging applies to path addressing only")
	}
	if fa, ok := opts.Accessor.(FuncAccessor); ok && (fa.Read == nil || fa.Write == nil) {
		return nil, fmt.Errorf("snapmut: FuncAccessor requires both Read and Write")
	}
	if opts.Paging != nil && opts.ItemsPath == "" {
		// an array-shaped snapshot has no object to carry the counters
		return nil, fmt.Errorf("snapmut: Paging requires ItemsPath")
	}

	e := &engine{acc: opts.Accessor}
	if e.acc == nil {
		e.acc = pathAccessor{path: opts.ItemsPath, seed: opts.Seed}
	}

	// defaults
	e.keyOf = opts.KeyOf
	if e.keyOf == nil {
		e.keyOf = DefaultKey
	}
	if opts.Paging != nil {
		p := *opts.Paging // detach from the caller's copy
		e.paging = &p
	}

	return e, nil
}

func (e *engine) Items(snap any) []any                { return e.acc.Items(snap) }
func (e *engine) WithItems(snap any, items []any) any { return e.acc.WithItems(snap, items) }

func (e *engine) Add(snap, item any, pos Position) any {
	items := e.acc.Items(snap)
	next := make([]any, 0, len(items)+1)
	if pos == End {
		next = append(next, items...)
		next = append(next, item)
	} else {
		next = append(next, item)
		next = append(next, items...)
	}
	snap = e.acc.WithItems(snap, next)
	return e.paging.applyInsert(snap, 1)
}

func (e *engine) Update(snap, partial any) (any, error) {
	key, ok := e.keyOf(partial)
	if !ok {
		return snap, ErrMissingKey
	}
	return e.UpdateWhere(snap, partial, e.matchKey(key)), nil
}

func (e *engine) UpdateWhere(snap, partial any, match MatchFunc) any {
	if match == nil {
		return snap
	}
	items := e.acc.Items(snap)
	var next []any // copied lazily on the first hit
	for i, it := range items {
		if !match(it) {
			continue
		}
		if next == nil {
			next = append([]any(nil), items...)
		}
		next[i] = mergeItem(it, partial)
	}
	if next == nil {
		return snap
	}
	return e.acc.WithItems(snap, next)
}

func (e *engine) Delete(snap, item any) (any, error) {
	key, ok := e.keyOf(item)
	if !ok {
		return snap, ErrMissingKey
	}
	return e.DeleteKey(snap, key), nil
}

func (e *engine) DeleteKey(snap, key any) any {
	return e.DeleteWhere(snap, e.matchKey(key))
}

func (e *engine) DeleteWhere(snap any, match MatchFunc) any {
	if match == nil {
		return snap
	}
	items := e.acc.Items(snap)
	kept := make([]any, 0, len(items))
	removed := 0
	for _, it := range items {
		if match(it) {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	if removed == 0 {
		return snap
	}
	snap = e.acc.WithItems(snap, kept)
	return e.paging.applyRemove(snap, removed)
}

func (e *engine) Replace(snap, next any) any {
	return next
}

func (e *engine) Clear(snap any) any {
	return e.paging.applyReset(e.acc.WithItems(snap, []any{}))
}

// matchKey selects items whose extracted key equals key. Items without a
// key never match.
func (e *engine) matchKey(key any) MatchFunc {
	return func(item any) bool {
		k, ok := e.keyOf(item)
		return ok && keysEqual(k, key)
	}
}

// mergeItem overlays partial onto item field by field when both are
// map-shaped; any other pairing replaces the item wholesale.
func mergeItem(item, partial any) any {
	im, iok := item.(map[string]any)
	pm, pok := partial.(map[string]any)
	if !iok || !pok {
		return partial
	}
	out := make(map[string]any, len(im)+len(pm))
	for k, v := range im {
		out[k] = v
	}
	for k, v := range pm {
		out[k] = v
	}
	return out
}
