package board

// Import is a parsed foreign board ready to be merged.
type Import struct {
	Columns []Column `json:"columns"`
	Groups  []Group  `json:"groups"`
}

// MergeImported folds imported columns and groups into the board.
//
// Each imported column maps onto the first board column of the same type, or
// is appended as a new column when no such column exists. Imported cells are
// translated through that mapping in column order. When two land on the same
// board column, people lists are concatenated and otherwise the first
// populated value wins. Board columns the import did not fill get blank
// defaults. Imported groups are appended after the existing ones; existing
// items only gain the newly added columns.
func (b *Board) MergeImported(columns []Column, groups []Group) *Board {
	mapping := make(map[string]string, len(columns))
	var added []Column
	for _, ic := range columns {
		if existing, ok := b.FirstColumnOfType(ic.Type); ok {
			mapping[ic.ID] = existing.ID
			continue
		}
		added = append(added, ic)
	}

	next := b.Clone()
	next.Columns = append(next.Columns, added...)

	for _, c := range added {
		next.eachCells(func(cells Cells) {
			if _, ok := cells[c.ID]; !ok {
				cells[c.ID] = Cell{Type: c.Type, Value: DefaultValue(c.Type)}
			}
		})
	}

	translate := func(src Cells) Cells {
		out := make(Cells, len(next.Columns))
		seen := map[string]bool{}
		apply := func(importedID string, cell Cell) {
			target, mapped := mapping[importedID]
			if !mapped {
				target = importedID
			}
			prev, exists := out[target]
			switch {
			case !mapped || !exists:
				out[target] = Cell{Type: cell.Type, Value: cell.Value.Clone()}
			case cell.Type == TypePerson && cell.Value.kind == KindPeople && prev.Value.kind == KindPeople:
				merged := append(prev.Value.PeopleList(), cell.Value.people...)
				out[target] = Cell{Type: cell.Type, Value: People(merged...)}
			case cell.Value.HasValue() && !prev.Value.HasValue():
				out[target] = Cell{Type: cell.Type, Value: cell.Value.Clone()}
			}
		}
		// Imported columns first, in import order, then any stray cells.
		for _, ic := range columns {
			if cell, ok := src[ic.ID]; ok {
				apply(ic.ID, cell)
				seen[ic.ID] = true
			}
		}
		for id, cell := range src {
			if !seen[id] {
				apply(id, cell)
			}
		}
		for _, c := range next.Columns {
			if _, ok := out[c.ID]; !ok {
				out[c.ID] = Cell{Type: c.Type, Value: DefaultValue(c.Type)}
			}
		}
		return out
	}

	for _, g := range groups {
		g = g.Clone()
		g.BoardID = next.ID
		g.Position = len(next.Groups)
		if g.Items == nil {
			g.Items = []Item{}
		}
		for ii := range g.Items {
			it := &g.Items[ii]
			it.BoardID = next.ID
			it.GroupID = g.ID
			it.Position = ii
			it.Columns = translate(it.Columns)
			if it.Subitems == nil {
				it.Subitems = []Subitem{}
			}
			for si := range it.Subitems {
				s := &it.Subitems[si]
				s.BoardID = next.ID
				s.ItemID = it.ID
				s.Position = si
				s.Columns = translate(s.Columns)
			}
		}
		next.Groups = append(next.Groups, g)
	}
	return next
}
