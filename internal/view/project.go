// Package view derives read-only projections of a board: the filtered and
// sorted grid, per-column summaries and the daily brief.
package view

import (
	"slices"
	"strings"

	"orderlyflow/internal/board"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// SortByName sorts by item name instead of a column.
const SortByName = "__name__"

type Options struct {
	Search          string
	StatusFilter    []string
	HideDone        bool
	PersonFilter    string
	SortColumnID    string
	SortDirection   SortDirection
	HiddenColumnIDs []string
}

// Projected is the board as displayed. Groups keep their order and stay
// present even when every item is filtered out.
type Projected struct {
	BoardID string
	Name    string
	Columns []board.Column
	Groups  []board.Group
}

// ItemCount is the number of items left after filtering.
func (p *Projected) ItemCount() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Items)
	}
	return n
}

// Project filters, sorts and hides columns without touching b. Filters
// combine with AND.
func Project(b *board.Board, opts Options) *Projected {
	p := &Projected{BoardID: b.ID, Name: b.Name}

	hidden := make(map[string]bool, len(opts.HiddenColumnIDs))
	for _, id := range opts.HiddenColumnIDs {
		hidden[id] = true
	}
	for _, c := range b.Columns {
		if !hidden[c.ID] {
			p.Columns = append(p.Columns, c)
		}
	}

	keep := newFilter(b, opts)
	less := newComparator(b, opts)

	p.Groups = make([]board.Group, 0, len(b.Groups))
	for _, g := range b.Groups {
		pg := board.Group{ID: g.ID, BoardID: g.BoardID, Title: g.Title, Position: g.Position, Items: []board.Item{}}
		for _, it := range g.Items {
			if keep(it) {
				pg.Items = append(pg.Items, it.Clone())
			}
		}
		if less != nil {
			slices.SortStableFunc(pg.Items, less)
		}
		p.Groups = append(p.Groups, pg)
	}
	return p
}

func newFilter(b *board.Board, opts Options) func(board.Item) bool {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(opts.Search))

	statusCol, hasStatus := b.StatusColumn()
	wanted := make(map[string]bool, len(opts.StatusFilter))
	for _, s := range opts.StatusFilter {
		wanted[s] = true
	}

	var personCols []string
	for _, c := range b.Columns {
		if c.Type == board.TypePerson {
			personCols = append(personCols, c.ID)
		}
	}

	return func(it board.Item) bool {
		if needle != "" && !strings.Contains(fold.String(it.Name), needle) {
			return false
		}
		if hasStatus {
			status := it.Columns[statusCol.ID].Value.Str()
			if len(wanted) > 0 && !wanted[status] {
				return false
			}
			if opts.HideDone && status == board.StatusDone {
				return false
			}
		}
		if opts.PersonFilter != "" && !assigned(it, personCols, opts.PersonFilter) {
			return false
		}
		return true
	}
}

func assigned(it board.Item, personCols []string, name string) bool {
	for _, id := range personCols {
		for _, p := range it.Columns[id].Value.PeopleList() {
			if p.Name == name {
				return true
			}
		}
	}
	return false
}

func newComparator(b *board.Board, opts Options) func(a, c board.Item) int {
	if opts.SortColumnID == "" {
		return nil
	}
	key := func(it board.Item) string { return it.Name }
	if opts.SortColumnID != SortByName {
		if _, ok := b.Column(opts.SortColumnID); !ok {
			return nil
		}
		key = func(it board.Item) string { return it.Columns[opts.SortColumnID].Value.SortKey() }
	}
	coll := collate.New(language.Und, collate.IgnoreCase)
	sign := 1
	if opts.SortDirection == Desc {
		sign = -1
	}
	return func(a, c board.Item) int {
		return sign * coll.CompareString(key(a), key(c))
	}
}
