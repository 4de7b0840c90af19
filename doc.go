// Package snapmut mutates cached response snapshots in place of a refetch:
// given a snapshot of arbitrary nested shape, it adds, updates, deletes, or
// replaces items inside a nested array immutably and keeps pagination
// counters (total elements, total pages) consistent. Every transform returns
// a new snapshot sharing untouched branches with the input.
//
// Components:
//   - Engine: pure snapshot transforms (Add/Update/Delete/Replace/Clear),
//     configured with a dot path to the items array, a key extractor, and
//     optional pagination paths.
//   - store.Store: keyed snapshot store with atomic read-modify-write
//     (in-memory, Redis, Ristretto, BigCache, afero file tree).
//   - Mutator: runs engine transforms through a Store and degrades failed
//     writes to an invalidate so consumers refetch instead of going stale.
//
// Mutation pattern:
//
//	eng, _ := snapmut.New(snapmut.Options{
//		ItemsPath: "data.content",
//		Paging:    &snapmut.Paging{TotalPath: "page.totalElements", PagesPath: "page.totalPages", SizePath: "page.size"},
//	})
//	mut, _ := snapmut.NewMutator(snapmut.MutatorOptions{Store: st, Engine: eng})
//	_ = mut.Add(ctx, "q:users", newUser, snapmut.Start) // splice + recount, atomically
package snapmut
