package board

// ReconcileCells makes cells agree with a column schema: keys of unknown
// columns are dropped, missing columns get their blank default and cells
// written under another type are coerced. The input is not modified; ok
// reports whether anything changed.
func ReconcileCells(columns []Column, cells Cells) (out Cells, changed bool) {
	out = make(Cells, len(columns))
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c.ID] = true
		cell, ok := cells[c.ID]
		switch {
		case !ok:
			out[c.ID] = Cell{Type: c.Type, Value: DefaultValue(c.Type)}
			changed = true
		case cell.Type != c.Type:
			out[c.ID] = Cell{Type: c.Type, Value: Coerce(cell.Value, c.Type)}
			changed = true
		default:
			out[c.ID] = Cell{Type: cell.Type, Value: cell.Value.Clone()}
		}
	}
	for id := range cells {
		if !known[id] {
			changed = true
		}
	}
	return out, changed
}
