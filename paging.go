package snapmut

import "github.com/unkn0wn-root/snapmut/dotpath"

// Paging describes where a snapshot stores its pagination envelope so the
// engine can keep the counters honest as items come and go. All paths are
// dot paths relative to the snapshot root; leave a path empty to opt that
// counter out.
type Paging struct {
	// TotalPath locates the total item count (e.g. "page.totalElements").
	TotalPath string
	// PagesPath locates the page count (e.g. "page.totalPages"). Recomputed
	// from the total and the page size after every change to the total.
	PagesPath string
	// PagePath locates the current page index. Informational only: the
	// engine never rewrites it.
	PagePath string
	// SizePath locates the page size used to derive PagesPath.
	SizePath string
}

// applyInsert bumps the total by n added items and recounts pages.
// Nil receiver is a no-op so callers never branch on configuration.
func (p *Paging) applyInsert(snap any, n int) any {
	if p == nil || n == 0 || p.TotalPath == "" {
		return snap
	}
	snap = dotpath.Increment(snap, p.TotalPath, int64(n))
	return p.recountPages(snap)
}

// applyRemove drops the total by n removed items, clamping at zero, and
// recounts pages.
func (p *Paging) applyRemove(snap any, n int) any {
	if p == nil || n == 0 || p.TotalPath == "" {
		return snap
	}
	total, _ := dotpath.Int64(dotpath.Get(snap, p.TotalPath, int64(0)))
	total -= int64(n)
	if total < 0 {
		total = 0
	}
	snap = dotpath.Set(snap, p.TotalPath, total)
	return p.recountPages(snap)
}

// applyReset zeroes both counters after a wholesale clear.
func (p *Paging) applyReset(snap any) any {
	if p == nil {
		return snap
	}
	if p.TotalPath != "" {
		snap = dotpath.Set(snap, p.TotalPath, int64(0))
	}
	if p.PagesPath != "" {
		snap = dotpath.Set(snap, p.PagesPath, int64(0))
	}
	return snap
}

// recountPages derives the page count from the current total and page size:
// ceil(total/size). Skipped unless both the pages and size paths are set and
// the size resolves to a positive number.
func (p *Paging) recountPages(snap any) any {
	if p.PagesPath == "" || p.SizePath == "" {
		return snap
	}
	size, ok := dotpath.Int64(dotpath.Get(snap, p.SizePath, nil))
	if !ok || size <= 0 {
		return snap
	}
	total, _ := dotpath.Int64(dotpath.Get(snap, p.TotalPath, int64(0)))
	if total < 0 {
		total = 0
	}
	return dotpath.Set(snap, p.PagesPath, (total+size-1)/size)
}
