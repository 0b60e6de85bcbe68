// Package view implements the paginated, searchable table view-model
// shared by the students and payments screens.
//
// Table is generic over the record type: the two screens differ only in
// their columns and their fetch function, so the interactive state —
// search text, page position, the open row menu, the selected record —
// is written once. Rendering is left to the caller; Snapshot returns
// everything a renderer needs.
package view

import (
	"context"

	"github.com/nishantchy/OracleStoredProcedure/internal/query"
	"github.com/nishantchy/OracleStoredProcedure/internal/types"
)

// Record is what a table row must expose: the server-assigned identity.
// Per-row UI state (the open action menu, the selection) is keyed by
// this id, never by row position, so a backgrounded re-fetch that shifts
// rows can never silently point the menu at a different record.
type Record interface {
	RecordID() int64
}

// FetchPage loads one page of records for the current parameters.
type FetchPage[R Record] func(ctx context.Context, search string, page, pageSize int) (types.Page[R], error)

// Snapshot is one render's worth of table state. Exactly one of the
// loading / error / rows presentations applies:
//
//	Loading true        → "Loading ..." text
//	Err != nil          → error text in place of the table
//	len(Rows) == 0      → empty-result text
//	otherwise           → the table plus the pagination footer
type Snapshot[R Record] struct {
	Loading bool
	Err     error
	Rows    []R

	Page       int
	TotalPages int
	Total      int
	// Start is the 1-based running serial of the first row on this
	// page, for the S.N column: (page-1)*pageSize + 1.
	Start int
}

// Table owns the interactive state of one list screen. Not safe for
// concurrent use: it lives on the single UI event loop.
type Table[R Record] struct {
	path     string
	pageSize int
	cache    *query.Cache
	fetch    FetchPage[R]

	search string
	page   int

	// total is the last total count the server reported; it decides
	// whether Next is allowed before the next fetch resolves.
	total int

	rows     []R
	openMenu int64 // record id of the open action menu, 0 = none
	selected *R
}

// NewTable returns a table on page 1 with an empty search.
func NewTable[R Record](path string, pageSize int, cache *query.Cache, fetch FetchPage[R]) *Table[R] {
	return &Table[R]{
		path:     path,
		pageSize: pageSize,
		cache:    cache,
		fetch:    fetch,
		page:     1,
	}
}

// Search returns the current search text.
func (t *Table[R]) Search() string { return t.search }

// SetSearch updates the search text. The text participates in the query
// key immediately; submitting the form only resets the page.
func (t *Table[R]) SetSearch(s string) { t.search = s }

// SubmitSearch resets to page 1: a changed search invalidates whatever
// page position the user had.
func (t *Table[R]) SubmitSearch() { t.page = 1 }

// Page returns the current 1-based page number.
func (t *Table[R]) Page() int { return t.page }

func (t *Table[R]) totalPages() int {
	if t.pageSize <= 0 {
		return 0
	}
	return (t.total + t.pageSize - 1) / t.pageSize
}

// CanPrev reports whether Previous is enabled. False on page 1.
func (t *Table[R]) CanPrev() bool { return t.page > 1 }

// CanNext reports whether Next is enabled. False on the last page and
// when there are zero pages.
func (t *Table[R]) CanNext() bool {
	tp := t.totalPages()
	return tp > 0 && t.page < tp
}

// Next moves forward one page, clamped to the last known page count.
func (t *Table[R]) Next() {
	if t.CanNext() {
		t.page++
	}
}

// Prev moves back one page, clamped to 1.
func (t *Table[R]) Prev() {
	if t.CanPrev() {
		t.page--
	}
}

func (t *Table[R]) key() string {
	return query.Key(t.path, t.search, t.page, t.pageSize)
}

// Refresh invalidates exactly the current query key, forcing the next
// Snapshot to re-fetch this page.
func (t *Table[R]) Refresh() {
	t.cache.Invalidate(t.key())
}

// Snapshot drives the query cache for the current parameters and
// returns the resulting render state. A successful fetch also updates
// the total used for paging decisions.
func (t *Table[R]) Snapshot(ctx context.Context) Snapshot[R] {
	entry := t.cache.Get(ctx, t.key(), func(ctx context.Context) (any, error) {
		return t.fetch(ctx, t.search, t.page, t.pageSize)
	})

	switch entry.State {
	case query.Loading:
		return Snapshot[R]{Loading: true, Page: t.page}
	case query.Failed:
		return Snapshot[R]{Err: entry.Err, Page: t.page}
	}

	page := entry.Data.(types.Page[R])
	t.total = page.Total
	t.rows = page.Results

	return Snapshot[R]{
		Rows:       page.Results,
		Page:       t.page,
		TotalPages: page.TotalPages(),
		Total:      page.Total,
		Start:      (t.page-1)*t.pageSize + 1,
	}
}

// ToggleMenu opens the action menu of the given record, closing any
// other open menu; toggling the already-open menu closes it. Menus are
// mutually exclusive across rows.
func (t *Table[R]) ToggleMenu(id int64) {
	if t.openMenu == id {
		t.openMenu = 0
		return
	}
	t.openMenu = id
}

// OpenMenuID returns the record id of the open menu, 0 when none is open.
func (t *Table[R]) OpenMenuID() int64 { return t.openMenu }

// SelectForAction resolves the record behind an Update/Delete choice
// from a row menu: it looks the id up in the last fetched rows, records
// the selection, and closes the menu. ok is false when the id is not on
// the current page (e.g. the row vanished in a re-fetch).
func (t *Table[R]) SelectForAction(id int64) (rec R, ok bool) {
	t.openMenu = 0
	for _, r := range t.rows {
		if r.RecordID() == id {
			r := r
			t.selected = &r
			return r, true
		}
	}
	return rec, false
}

// Selected returns the record a flow is currently acting on.
func (t *Table[R]) Selected() (rec R, ok bool) {
	if t.selected == nil {
		return rec, false
	}
	return *t.selected, true
}

// ClearSelection drops the selected-record reference; the mutation
// flows call it (via their done callback) after a successful update or
// delete.
func (t *Table[R]) ClearSelection() { t.selected = nil }
