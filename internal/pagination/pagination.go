// Package pagination slices ordered results into fixed-size pages.
//
// A requested page number never produces an error: anything that is not a
// positive integer becomes page 1, and a number past the end becomes the
// last page. An empty result still has one (empty) page.
package pagination

import (
	"strconv"
	"strings"
)

// DefaultPerPage is the page size used when the configuration leaves it unset.
const DefaultPerPage = 10

// Paginator knows how many items exist and how many fit on a page. It is
// used when the items live in the database and only one page is fetched.
type Paginator struct {
	Count   int
	PerPage int
}

// NumPages is at least 1 so an empty listing still renders page 1.
func (p Paginator) NumPages() int {
	perPage := p.perPage()
	if p.Count <= 0 {
		return 1
	}
	return (p.Count + perPage - 1) / perPage
}

// Clamp maps any requested number onto a valid page.
func (p Paginator) Clamp(number int) int {
	if number < 1 {
		return 1
	}
	if last := p.NumPages(); number > last {
		return last
	}
	return number
}

// Offset is the index of the first item on the (clamped) page.
func (p Paginator) Offset(number int) int {
	return (p.Clamp(number) - 1) * p.perPage()
}

// Limit is the page size actually used.
func (p Paginator) Limit() int {
	return p.perPage()
}

func (p Paginator) perPage() int {
	if p.PerPage <= 0 {
		return DefaultPerPage
	}
	return p.PerPage
}

// Page is one slice of an ordered listing plus the navigation facts the
// templates need. Fields are exported so a Page survives a JSON round trip
// through the cache.
type Page[T any] struct {
	Items    []T `json:"items"`
	Number   int `json:"number"`
	NumPages int `json:"numPages"`
	Count    int `json:"count"`
	PerPage  int `json:"perPage"`
}

func (p Page[T]) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page[T]) HasPrevious() bool {
	return p.Number > 1
}

func (p Page[T]) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p Page[T]) NextNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

func (p Page[T]) PreviousNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

// Len is the number of items on this page.
func (p Page[T]) Len() int {
	return len(p.Items)
}

// NewPage builds a Page from items that were already fetched for the
// requested page (LIMIT/OFFSET in SQL). number is clamped the same way
// Offset clamped it when the query was built.
func NewPage[T any](items []T, number int, pg Paginator) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Number:   pg.Clamp(number),
		NumPages: pg.NumPages(),
		Count:    pg.Count,
		PerPage:  pg.Limit(),
	}
}

// Paginate slices an in-memory ordered list. It never mutates items and
// returns the same page for the same arguments.
func Paginate[T any](items []T, number, perPage int) Page[T] {
	pg := Paginator{Count: len(items), PerPage: perPage}
	start := pg.Offset(number)
	end := start + pg.Limit()
	if end > len(items) {
		end = len(items)
	}
	window := make([]T, end-start)
	copy(window, items[start:end])
	return NewPage(window, number, pg)
}

// ParseNumber reads a "page" query value. Empty or malformed input is page 1.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}
