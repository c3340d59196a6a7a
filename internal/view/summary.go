package view

import (
	"orderlyflow/internal/board"
)

// Summary aggregates one column over a list of items. Which fields are set
// depends on Type.
type Summary struct {
	Type         board.ColumnType
	Total        int
	StatusCounts map[string]int
	People       int
	WithDates    int
	TotalSeconds int64
	Files        int
	Filled       int
}

func (s Summary) Hours() int64   { return s.TotalSeconds / 3600 }
func (s Summary) Minutes() int64 { return (s.TotalSeconds % 3600) / 60 }

// Summarize computes the footer summary of col. ok is false for an empty
// item list.
func Summarize(col board.Column, items []board.Item) (s Summary, ok bool) {
	if len(items) == 0 {
		return Summary{}, false
	}
	s = Summary{Type: col.Type, Total: len(items)}

	var values []board.CellValue
	for _, it := range items {
		cell, present := it.Columns[col.ID]
		if !present {
			continue
		}
		if cell.Value.Kind() == board.KindString && cell.Value.Str() == "" {
			continue
		}
		values = append(values, cell.Value)
	}

	switch col.Type {
	case board.TypeStatus:
		s.StatusCounts = map[string]int{}
		for _, v := range values {
			s.StatusCounts[v.Str()]++
		}
	case board.TypePerson:
		names := map[string]bool{}
		for _, v := range values {
			for _, p := range v.PeopleList() {
				if p.Name != "" {
					names[p.Name] = true
				}
			}
		}
		s.People = len(names)
	case board.TypeDate:
		s.WithDates = len(values)
	case board.TypeTimeTracker:
		for _, v := range values {
			if v.Kind() == board.KindTimer {
				s.TotalSeconds += v.TimerValue().TotalSeconds
			}
		}
	case board.TypeFiles:
		for _, v := range values {
			s.Files += len(v.FileList())
		}
	default:
		s.Filled = len(values)
	}
	return s, true
}
