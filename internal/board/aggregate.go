package board

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ItemField names a scalar field of an item or subitem.
type ItemField string

const FieldName ItemField = "name"

func (b *Board) groupIndex(id string) int {
	return slices.IndexFunc(b.Groups, func(g Group) bool { return g.ID == id })
}

func (b *Board) itemIndex(id string) (gi, ii int) {
	for gi := range b.Groups {
		for ii := range b.Groups[gi].Items {
			if b.Groups[gi].Items[ii].ID == id {
				return gi, ii
			}
		}
	}
	return -1, -1
}

func (b *Board) subitemIndex(id string) (gi, ii, si int) {
	for gi := range b.Groups {
		for ii := range b.Groups[gi].Items {
			for si := range b.Groups[gi].Items[ii].Subitems {
				if b.Groups[gi].Items[ii].Subitems[si].ID == id {
					return gi, ii, si
				}
			}
		}
	}
	return -1, -1, -1
}

func (b *Board) columnIndex(id string) int {
	return slices.IndexFunc(b.Columns, func(c Column) bool { return c.ID == id })
}

func (b *Board) Group(id string) (Group, bool) {
	if gi := b.groupIndex(id); gi >= 0 {
		return b.Groups[gi].Clone(), true
	}
	return Group{}, false
}

func (b *Board) Item(id string) (Item, bool) {
	if gi, ii := b.itemIndex(id); gi >= 0 {
		return b.Groups[gi].Items[ii].Clone(), true
	}
	return Item{}, false
}

func (b *Board) Subitem(id string) (Subitem, bool) {
	if gi, ii, si := b.subitemIndex(id); gi >= 0 {
		return b.Groups[gi].Items[ii].Subitems[si].Clone(), true
	}
	return Subitem{}, false
}

func (b *Board) Column(id string) (Column, bool) {
	if ci := b.columnIndex(id); ci >= 0 {
		return b.Columns[ci], true
	}
	return Column{}, false
}

// FirstColumnOfType returns the leftmost column of type t.
func (b *Board) FirstColumnOfType(t ColumnType) (Column, bool) {
	for _, c := range b.Columns {
		if c.Type == t {
			return c, true
		}
	}
	return Column{}, false
}

func (b *Board) StatusColumn() (Column, bool) {
	return b.FirstColumnOfType(TypeStatus)
}

// PeopleOnBoard collects the distinct people assigned anywhere on the board,
// keyed by name in first-seen order.
func (b *Board) PeopleOnBoard() []Person {
	seen := map[string]bool{}
	var out []Person
	collect := func(cells Cells) {
		for _, c := range b.Columns {
			if c.Type != TypePerson {
				continue
			}
			for _, p := range cells[c.ID].Value.people {
				if !seen[p.Name] {
					seen[p.Name] = true
					out = append(out, p)
				}
			}
		}
	}
	for _, g := range b.Groups {
		for _, it := range g.Items {
			collect(it.Columns)
			for _, s := range it.Subitems {
				collect(s.Columns)
			}
		}
	}
	return out
}

// Person finds a board person by name, ignoring case.
func (b *Board) Person(name string) (Person, bool) {
	for _, p := range b.People {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Person{}, false
}

// InsertPerson adds p to the board's people. Duplicate ids are ignored.
func (b *Board) InsertPerson(p Person) *Board {
	if slices.ContainsFunc(b.People, func(q Person) bool { return q.ID == p.ID }) {
		return b
	}
	next := b.Clone()
	p.BoardID = b.ID
	next.People = append(next.People, p)
	return next
}

// NewGroup builds a group that would be appended next. The board is unchanged.
func (b *Board) NewGroup(title string) Group {
	return Group{
		ID:       NewID(KindGroup),
		BoardID:  b.ID,
		Title:    title,
		Position: len(b.Groups),
		Items:    []Item{},
	}
}

// InsertGroup appends g, renumbering its position to the end of the list.
// A group whose id already exists is ignored.
func (b *Board) InsertGroup(g Group) *Board {
	if b.groupIndex(g.ID) >= 0 {
		return b
	}
	next := b.Clone()
	g = g.Clone()
	g.BoardID = b.ID
	g.Position = len(next.Groups)
	if g.Items == nil {
		g.Items = []Item{}
	}
	next.Groups = append(next.Groups, g)
	return next
}

func (b *Board) AddGroup(title string) (Group, *Board) {
	g := b.NewGroup(title)
	return g, b.InsertGroup(g)
}

func (b *Board) seedCells(def func(ColumnType) CellValue) Cells {
	cells := make(Cells, len(b.Columns))
	for _, c := range b.Columns {
		cells[c.ID] = Cell{Type: c.Type, Value: def(c.Type)}
	}
	return cells
}

// NewItem builds an item for groupID seeded with new-item defaults. ok is
// false when the group does not exist.
func (b *Board) NewItem(groupID, name string) (Item, bool) {
	gi := b.groupIndex(groupID)
	if gi < 0 {
		return Item{}, false
	}
	return Item{
		ID:       NewID(KindItem),
		BoardID:  b.ID,
		GroupID:  groupID,
		Name:     name,
		Position: len(b.Groups[gi].Items),
		Columns:  b.seedCells(NewItemDefault),
		Subitems: []Subitem{},
	}, true
}

// InsertItem appends it to its group. Unknown groups and duplicate ids are
// ignored.
func (b *Board) InsertItem(it Item) *Board {
	gi := b.groupIndex(it.GroupID)
	if gi < 0 {
		return b
	}
	if g, _ := b.itemIndex(it.ID); g >= 0 {
		return b
	}
	next := b.Clone()
	it = it.Clone()
	it.BoardID = b.ID
	it.Position = len(next.Groups[gi].Items)
	if it.Subitems == nil {
		it.Subitems = []Subitem{}
	}
	for i := range it.Subitems {
		it.Subitems[i].BoardID = b.ID
		it.Subitems[i].ItemID = it.ID
	}
	next.Groups[gi].Items = append(next.Groups[gi].Items, it)
	return next
}

func (b *Board) AddItem(groupID, name string) (Item, *Board) {
	it, ok := b.NewItem(groupID, name)
	if !ok {
		return Item{}, b
	}
	next := b.InsertItem(it)
	return it, next
}

// NewSubitem builds a subitem for itemID starting from a copy of the parent's
// cells.
func (b *Board) NewSubitem(itemID, name string) (Subitem, bool) {
	gi, ii := b.itemIndex(itemID)
	if gi < 0 {
		return Subitem{}, false
	}
	parent := b.Groups[gi].Items[ii]
	cells := parent.Columns.Clone()
	if cells == nil {
		cells = Cells{}
	}
	return Subitem{
		ID:       NewID(KindSubitem),
		BoardID:  b.ID,
		ItemID:   itemID,
		Name:     name,
		Position: len(parent.Subitems),
		Columns:  cells,
	}, true
}

func (b *Board) InsertSubitem(s Subitem) *Board {
	gi, ii := b.itemIndex(s.ItemID)
	if gi < 0 {
		return b
	}
	if g, _, _ := b.subitemIndex(s.ID); g >= 0 {
		return b
	}
	next := b.Clone()
	s = s.Clone()
	s.BoardID = b.ID
	parent := &next.Groups[gi].Items[ii]
	s.Position = len(parent.Subitems)
	parent.Subitems = append(parent.Subitems, s)
	return next
}

func (b *Board) AddSubitem(itemID, name string) (Subitem, *Board) {
	s, ok := b.NewSubitem(itemID, name)
	if !ok {
		return Subitem{}, b
	}
	return s, b.InsertSubitem(s)
}

func (b *Board) UpdateGroupTitle(groupID, title string) *Board {
	gi := b.groupIndex(groupID)
	if gi < 0 {
		return b
	}
	next := b.Clone()
	next.Groups[gi].Title = title
	return next
}

func (b *Board) UpdateItemField(itemID string, field ItemField, value string) *Board {
	gi, ii := b.itemIndex(itemID)
	if gi < 0 || field != FieldName {
		return b
	}
	next := b.Clone()
	next.Groups[gi].Items[ii].Name = value
	return next
}

func (b *Board) UpdateSubitemField(subitemID string, field ItemField, value string) *Board {
	gi, ii, si := b.subitemIndex(subitemID)
	if gi < 0 || field != FieldName {
		return b
	}
	next := b.Clone()
	next.Groups[gi].Items[ii].Subitems[si].Name = value
	return next
}

// cellType resolves the type to tag a write with: the board column's type,
// else the type already stored in the cell.
func (b *Board) cellType(cells Cells, columnID string) (ColumnType, bool) {
	if c, ok := b.Column(columnID); ok {
		return c.Type, true
	}
	if cell, ok := cells[columnID]; ok {
		return cell.Type, true
	}
	return "", false
}

func (b *Board) UpdateColumnValue(itemID, columnID string, value CellValue) *Board {
	gi, ii := b.itemIndex(itemID)
	if gi < 0 {
		return b
	}
	t, ok := b.cellType(b.Groups[gi].Items[ii].Columns, columnID)
	if !ok {
		return b
	}
	next := b.Clone()
	it := &next.Groups[gi].Items[ii]
	if it.Columns == nil {
		it.Columns = Cells{}
	}
	it.Columns[columnID] = Cell{Type: t, Value: value.Clone()}
	return next
}

func (b *Board) UpdateSubitemColumnValue(subitemID, columnID string, value CellValue) *Board {
	gi, ii, si := b.subitemIndex(subitemID)
	if gi < 0 {
		return b
	}
	t, ok := b.cellType(b.Groups[gi].Items[ii].Subitems[si].Columns, columnID)
	if !ok {
		return b
	}
	next := b.Clone()
	s := &next.Groups[gi].Items[ii].Subitems[si]
	if s.Columns == nil {
		s.Columns = Cells{}
	}
	s.Columns[columnID] = Cell{Type: t, Value: value.Clone()}
	return next
}

func (b *Board) DeleteGroup(groupID string) *Board {
	gi := b.groupIndex(groupID)
	if gi < 0 {
		return b
	}
	next := b.Clone()
	next.Groups = slices.Delete(next.Groups, gi, gi+1)
	return next
}

func (b *Board) DeleteItem(itemID string) *Board {
	gi, ii := b.itemIndex(itemID)
	if gi < 0 {
		return b
	}
	next := b.Clone()
	next.Groups[gi].Items = slices.Delete(next.Groups[gi].Items, ii, ii+1)
	return next
}

func (b *Board) DeleteSubitem(subitemID string) *Board {
	gi, ii, si := b.subitemIndex(subitemID)
	if gi < 0 {
		return b
	}
	next := b.Clone()
	it := &next.Groups[gi].Items[ii]
	it.Subitems = slices.Delete(it.Subitems, si, si+1)
	return next
}

// NewColumn builds a column of type t. ok is false for unregistered types.
func NewColumn(title string, t ColumnType) (Column, bool) {
	if !t.Valid() {
		return Column{}, false
	}
	return Column{ID: NewID(KindColumn), Title: title, Type: t}, true
}

// InsertColumn appends col and backfills every item and subitem with the
// type's default.
func (b *Board) InsertColumn(col Column) *Board {
	if !col.Type.Valid() || b.columnIndex(col.ID) >= 0 {
		return b
	}
	next := b.Clone()
	next.Columns = append(next.Columns, col)
	next.eachCells(func(cells Cells) {
		cells[col.ID] = Cell{Type: col.Type, Value: DefaultValue(col.Type)}
	})
	return next
}

func (b *Board) AddColumn(title string, t ColumnType) (Column, *Board) {
	col, ok := NewColumn(title, t)
	if !ok {
		return Column{}, b
	}
	return col, b.InsertColumn(col)
}

func (b *Board) DeleteColumn(columnID string) *Board {
	ci := b.columnIndex(columnID)
	if ci < 0 {
		return b
	}
	next := b.Clone()
	next.Columns = slices.Delete(next.Columns, ci, ci+1)
	next.eachCells(func(cells Cells) {
		delete(cells, columnID)
	})
	return next
}

func (b *Board) RenameColumn(columnID, title string) *Board {
	ci := b.columnIndex(columnID)
	if ci < 0 {
		return b
	}
	next := b.Clone()
	next.Columns[ci].Title = title
	return next
}

// ResizeColumn sets a column's width, clamped to MinColumnWidth.
func (b *Board) ResizeColumn(columnID string, width int) *Board {
	ci := b.columnIndex(columnID)
	if ci < 0 {
		return b
	}
	next := b.Clone()
	next.Columns[ci].Width = max(width, MinColumnWidth)
	return next
}

// ChangeColumnType retags a column and coerces every cell under it so value
// shapes match the new type.
func (b *Board) ChangeColumnType(columnID string, t ColumnType) *Board {
	ci := b.columnIndex(columnID)
	if ci < 0 || !t.Valid() || b.Columns[ci].Type == t {
		return b
	}
	next := b.Clone()
	next.Columns[ci].Type = t
	next.eachCells(func(cells Cells) {
		cells[columnID] = Cell{Type: t, Value: Coerce(cells[columnID].Value, t)}
	})
	return next
}

// eachCells visits the cell map of every item and subitem, creating missing
// maps. It must only be called on a board the caller owns.
func (b *Board) eachCells(fn func(Cells)) {
	for gi := range b.Groups {
		for ii := range b.Groups[gi].Items {
			it := &b.Groups[gi].Items[ii]
			if it.Columns == nil {
				it.Columns = Cells{}
			}
			fn(it.Columns)
			for si := range it.Subitems {
				s := &it.Subitems[si]
				if s.Columns == nil {
					s.Columns = Cells{}
				}
				fn(s.Columns)
			}
		}
	}
}

// Container classifies what a reorder container id refers to.
type Container int

const (
	ContainerNone Container = iota
	ContainerGroups
	ContainerItems
	ContainerSubitems
)

func (c Container) String() string {
	switch c {
	case ContainerGroups:
		return "groups"
	case ContainerItems:
		return "items"
	case ContainerSubitems:
		return "subitems"
	default:
		return "none"
	}
}

// ContainerOf reports which sibling list containerID names: the board id
// names its groups, a group id its items and an item id its subitems.
func (b *Board) ContainerOf(containerID string) Container {
	switch {
	case containerID == b.ID:
		return ContainerGroups
	case b.groupIndex(containerID) >= 0:
		return ContainerItems
	}
	if gi, _ := b.itemIndex(containerID); gi >= 0 {
		return ContainerSubitems
	}
	return ContainerNone
}

// Rank is an id with its position in a sibling list.
type Rank struct {
	ID       string
	Position int
}

// Ranks lists the children of containerID in order.
func (b *Board) Ranks(containerID string) []Rank {
	var out []Rank
	switch b.ContainerOf(containerID) {
	case ContainerGroups:
		for _, g := range b.Groups {
			out = append(out, Rank{g.ID, g.Position})
		}
	case ContainerItems:
		for _, it := range b.Groups[b.groupIndex(containerID)].Items {
			out = append(out, Rank{it.ID, it.Position})
		}
	case ContainerSubitems:
		gi, ii := b.itemIndex(containerID)
		for _, s := range b.Groups[gi].Items[ii].Subitems {
			out = append(out, Rank{s.ID, s.Position})
		}
	}
	return out
}

// ChangedRanks returns the children of containerID in next whose position
// differs from b.
func (b *Board) ChangedRanks(next *Board, containerID string) []Rank {
	before := map[string]int{}
	for _, r := range b.Ranks(containerID) {
		before[r.ID] = r.Position
	}
	var out []Rank
	for _, r := range next.Ranks(containerID) {
		if p, ok := before[r.ID]; !ok || p != r.Position {
			out = append(out, r)
		}
	}
	return out
}

func move[T any](s []T, from, to int) []T {
	v := s[from]
	s = slices.Delete(s, from, from+1)
	return slices.Insert(s, to, v)
}

// ReorderSiblings moves the child at fromIndex to toIndex and renumbers every
// sibling's position to its index. Equal or out-of-range indices are no-ops.
func (b *Board) ReorderSiblings(containerID string, fromIndex, toIndex int) *Board {
	kind := b.ContainerOf(containerID)
	n := len(b.Ranks(containerID))
	if kind == ContainerNone || fromIndex == toIndex ||
		fromIndex < 0 || toIndex < 0 || fromIndex >= n || toIndex >= n {
		return b
	}
	next := b.Clone()
	switch kind {
	case ContainerGroups:
		next.Groups = move(next.Groups, fromIndex, toIndex)
		for i := range next.Groups {
			next.Groups[i].Position = i
		}
	case ContainerItems:
		g := &next.Groups[next.groupIndex(containerID)]
		g.Items = move(g.Items, fromIndex, toIndex)
		renumberItems(g.Items)
	case ContainerSubitems:
		gi, ii := next.itemIndex(containerID)
		it := &next.Groups[gi].Items[ii]
		it.Subitems = move(it.Subitems, fromIndex, toIndex)
		for i := range it.Subitems {
			it.Subitems[i].Position = i
		}
	}
	return next
}

func renumberItems(items []Item) {
	for i := range items {
		items[i].Position = i
	}
}

// MoveItem moves an item into another group at toIndex (clamped to the end)
// and renumbers both groups. Moving within the same group is a reorder.
func (b *Board) MoveItem(itemID, toGroupID string, toIndex int) *Board {
	gi, ii := b.itemIndex(itemID)
	ti := b.groupIndex(toGroupID)
	if gi < 0 || ti < 0 {
		return b
	}
	if gi == ti {
		return b.ReorderSiblings(toGroupID, ii, min(toIndex, len(b.Groups[gi].Items)-1))
	}
	next := b.Clone()
	it := next.Groups[gi].Items[ii]
	next.Groups[gi].Items = slices.Delete(next.Groups[gi].Items, ii, ii+1)
	it.GroupID = toGroupID
	target := &next.Groups[ti]
	toIndex = max(0, min(toIndex, len(target.Items)))
	target.Items = slices.Insert(target.Items, toIndex, it)
	renumberItems(next.Groups[gi].Items)
	renumberItems(target.Items)
	return next
}

// Validate reports structural inconsistencies: children pointing at the wrong
// parent or board, duplicate ids, and cells keyed by unknown columns.
func (b *Board) Validate() error {
	var errs []error
	seen := map[string]bool{}
	dup := func(id string) {
		if seen[id] {
			errs = append(errs, fmt.Errorf("duplicate id %q", id))
		}
		seen[id] = true
	}
	cols := map[string]bool{}
	for _, c := range b.Columns {
		dup(c.ID)
		cols[c.ID] = true
	}
	checkCells := func(owner string, cells Cells) {
		for k := range cells {
			if !cols[k] {
				errs = append(errs, fmt.Errorf("%s has cell for unknown column %q", owner, k))
			}
		}
	}
	for _, g := range b.Groups {
		dup(g.ID)
		if g.BoardID != b.ID {
			errs = append(errs, fmt.Errorf("group %q belongs to board %q", g.ID, g.BoardID))
		}
		for _, it := range g.Items {
			dup(it.ID)
			if it.GroupID != g.ID {
				errs = append(errs, fmt.Errorf("item %q references group %q but lives in %q", it.ID, it.GroupID, g.ID))
			}
			if it.BoardID != b.ID {
				errs = append(errs, fmt.Errorf("item %q belongs to board %q", it.ID, it.BoardID))
			}
			checkCells("item "+it.ID, it.Columns)
			for _, s := range it.Subitems {
				dup(s.ID)
				if s.ItemID != it.ID {
					errs = append(errs, fmt.Errorf("subitem %q references item %q but lives in %q", s.ID, s.ItemID, it.ID))
				}
				if s.BoardID != b.ID {
					errs = append(errs, fmt.Errorf("subitem %q belongs to board %q", s.ID, s.BoardID))
				}
				checkCells("subitem "+s.ID, s.Columns)
			}
		}
	}
	return errors.Join(errs...)
}
