package views

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"oftalmo/internal/client/api"
)

// ErrStaleResponse is returned by a load whose response arrived after a
// newer load had been issued. Its result is dropped.
var ErrStaleResponse = errors.New("stale response discarded")

// Page is one server-delimited slice of a collection.
type Page[T any] struct {
	Items      []T
	TotalPages int
}

type FetchFunc[T any] func(ctx context.Context, q api.PageQuery) (Page[T], error)

// ListState is a consistent snapshot of a ListView.
type ListState[T any] struct {
	Items   []T
	Pager   Pager
	Search  string
	Loading bool
	Err     error
}

// Empty reports the settled, error-free, zero-item state.
func (s ListState[T]) Empty() bool {
	return !s.Loading && len(s.Items) == 0
}

// ListView is a paginated, optionally filtered collection fetched one page
// at a time. Every load carries a sequence number and only the latest
// issued load may update the view.
type ListView[T any] struct {
	mu      sync.Mutex
	fetch   FetchFunc[T]
	log     *zap.Logger
	seq     uint64
	pager   Pager
	search  string
	items   []T
	loading bool
	loaded  bool
	err     error
}

func NewListView[T any](fetch FetchFunc[T], log *zap.Logger) *ListView[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &ListView[T]{fetch: fetch, log: log, pager: NewPager(), loading: true}
}

// Configure sets the page and filter the view mounts with. It does not fetch.
func (v *ListView[T]) Configure(page int, search string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pager.Current = page
	v.search = search
	v.clampLocked()
}

// Load fetches the current page for the current filter. A page beyond the
// reported page count is clamped and fetched again once.
func (v *ListView[T]) Load(ctx context.Context) error {
	clamped, err := v.load(ctx, true)
	if err != nil || !clamped {
		return err
	}
	_, err = v.load(ctx, false)
	return err
}

// load runs one fetch. With refetch set, a response whose page count puts
// the requested page out of range only updates the pager and reports true.
func (v *ListView[T]) load(ctx context.Context, refetch bool) (bool, error) {
	v.mu.Lock()
	v.clampLocked()
	v.seq++
	seq := v.seq
	q := api.PageQuery{Page: v.pager.Current, Search: v.search}
	v.loading = true
	v.mu.Unlock()

	page, err := v.fetch(ctx, q)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.seq {
		v.log.Debug("dropping stale page",
			zap.Uint64("seq", seq),
			zap.Uint64("latest", v.seq),
			zap.Int("page", q.Page),
		)
		return false, ErrStaleResponse
	}
	if err != nil {
		v.loading = false
		v.err = err
		return false, err
	}
	v.err = nil
	v.loaded = true
	v.pager.Total = page.TotalPages
	v.pager.Clamp()
	if refetch && v.pager.Current != q.Page {
		v.log.Debug("page out of range",
			zap.Int("page", q.Page),
			zap.Int("total_pages", page.TotalPages),
		)
		return true, nil
	}
	v.loading = false
	v.items = page.Items
	return false, nil
}

// clampLocked bounds the page. The upper bound is only known once a page
// has been loaded.
func (v *ListView[T]) clampLocked() {
	if v.loaded {
		v.pager.Clamp()
		return
	}
	if v.pager.Current < 1 {
		v.pager.Current = 1
	}
}

// NextPage moves forward and loads, or does nothing on the last page.
func (v *ListView[T]) NextPage(ctx context.Context) error {
	v.mu.Lock()
	moved := v.pager.Next()
	v.mu.Unlock()
	if !moved {
		return nil
	}
	return v.Load(ctx)
}

// PrevPage moves back and loads, or does nothing on page 1.
func (v *ListView[T]) PrevPage(ctx context.Context) error {
	v.mu.Lock()
	moved := v.pager.Prev()
	v.mu.Unlock()
	if !moved {
		return nil
	}
	return v.Load(ctx)
}

// GoTo jumps to page n, clamped to the known page range.
func (v *ListView[T]) GoTo(ctx context.Context, n int) error {
	v.mu.Lock()
	before := v.pager.Current
	v.pager.Current = n
	v.clampLocked()
	moved := v.pager.Current != before
	v.mu.Unlock()
	if !moved {
		return nil
	}
	return v.Load(ctx)
}

// SetSearch replaces the filter verbatim and restarts from page 1.
func (v *ListView[T]) SetSearch(ctx context.Context, search string) error {
	v.mu.Lock()
	changed := search != v.search
	v.search = search
	if v.pager.Reset() {
		changed = true
	}
	v.mu.Unlock()
	if !changed {
		return nil
	}
	return v.Load(ctx)
}

func (v *ListView[T]) State() ListState[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]T, len(v.items))
	copy(items, v.items)
	return ListState[T]{
		Items:   items,
		Pager:   v.pager,
		Search:  v.search,
		Loading: v.loading,
		Err:     v.err,
	}
}
