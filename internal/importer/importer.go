// Package importer converts a Monday-style spreadsheet export into board
// columns and groups ready for board.MergeImported.
//
// The first sheet is read top to bottom. Rows before the first
// "Name | Subitems | ..." header only contribute a group title. After it:
//
//   - a "Subitems | Name | ..." row starts a subitem section for the last item
//   - a row with a first cell and fewer than two other filled cells opens a group
//   - a row with an empty first cell inside a subitem section is a subitem
//   - any other row with a first cell is an item
package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"orderlyflow/internal/board"

	"github.com/xuri/excelize/v2"
)

var ErrNoSheet = errors.New("workbook has no sheets")

const defaultGroupTitle = "Imported Items"

type sourceColumn struct {
	index int
	col   board.Column
}

type parser struct {
	groups   []board.Group
	group    *board.Group
	item     *board.Item
	pending  string
	main     []sourceColumn
	sub      []sourceColumn
	inSub    bool
	seenHead bool
}

// Parse reads an .xlsx export.
func Parse(r io.Reader) (board.Import, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return board.Import{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return board.Import{}, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return board.Import{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return parseRows(rows), nil
}

func parseRows(rows [][]string) board.Import {
	p := &parser{}
	for _, row := range rows {
		p.row(row)
	}
	return p.result()
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func filledAfterFirst(row []string) int {
	n := 0
	for _, v := range row[1:] {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

func (p *parser) row(row []string) {
	if len(row) == 0 {
		return
	}
	first, second := cell(row, 0), cell(row, 1)

	if first == "Name" && second == "Subitems" {
		p.main = headerColumns(row)
		p.inSub = false
		p.seenHead = true
		if p.pending != "" {
			p.openGroup(p.pending)
			p.pending = ""
		}
		return
	}
	if !p.seenHead {
		if first != "" && filledAfterFirst(row) < 2 {
			p.pending = first
		}
		return
	}
	if first == "Subitems" && second == "Name" {
		p.sub = headerColumns(row)
		p.inSub = true
		return
	}

	// Exports put the item id in the trailing columns; a row carrying one
	// is an item even if it is otherwise sparse.
	hasItemID := (len(row) >= 2 && cell(row, len(row)-2) != "") || (len(row) >= 3 && cell(row, len(row)-3) != "")
	if first != "" && filledAfterFirst(row) < 2 && !hasItemID {
		p.openGroup(first)
		return
	}

	if p.inSub && p.item != nil && first == "" {
		if second == "" {
			return
		}
		s := board.Subitem{
			ID:      board.NewID(board.KindSubitem),
			ItemID:  p.item.ID,
			Name:    second,
			Columns: values(row, p.sub),
		}
		p.item.Subitems = append(p.item.Subitems, s)
		return
	}

	if first == "" {
		return
	}
	if p.group == nil {
		p.openGroup(defaultGroupTitle)
	}
	p.group.Items = append(p.group.Items, board.Item{
		ID:       board.NewID(board.KindItem),
		GroupID:  p.group.ID,
		Name:     first,
		Columns:  values(row, p.main),
		Subitems: []board.Subitem{},
	})
	p.item = &p.group.Items[len(p.group.Items)-1]
	p.inSub = false
}

func (p *parser) openGroup(title string) {
	p.groups = append(p.groups, board.Group{
		ID:    board.NewID(board.KindGroup),
		Title: title,
		Items: []board.Item{},
	})
	p.group = &p.groups[len(p.groups)-1]
	p.item = nil
	p.inSub = false
}

// result merges subitem columns into the main column list. A subitem column
// whose title matches a main column is folded onto that column.
func (p *parser) result() board.Import {
	byTitle := map[string]string{}
	cols := make([]board.Column, 0, len(p.main)+len(p.sub))
	for _, sc := range p.main {
		byTitle[strings.ToLower(sc.col.Title)] = sc.col.ID
		cols = append(cols, sc.col)
	}
	remap := map[string]string{}
	for _, sc := range p.sub {
		if id, ok := byTitle[strings.ToLower(sc.col.Title)]; ok {
			remap[sc.col.ID] = id
			continue
		}
		byTitle[strings.ToLower(sc.col.Title)] = sc.col.ID
		cols = append(cols, sc.col)
	}
	if len(remap) > 0 {
		for gi := range p.groups {
			for ii := range p.groups[gi].Items {
				for si := range p.groups[gi].Items[ii].Subitems {
					s := &p.groups[gi].Items[ii].Subitems[si]
					out := make(board.Cells, len(s.Columns))
					for id, c := range s.Columns {
						if to, ok := remap[id]; ok {
							id = to
						}
						out[id] = c
					}
					s.Columns = out
				}
			}
		}
	}
	groups := p.groups
	if groups == nil {
		groups = []board.Group{}
	}
	return board.Import{Columns: cols, Groups: groups}
}

func headerColumns(row []string) []sourceColumn {
	var out []sourceColumn
	for j := 2; j < len(row); j++ {
		title := cell(row, j)
		if title == "" || strings.EqualFold(title, "item id (auto generated)") {
			continue
		}
		out = append(out, sourceColumn{index: j, col: board.Column{
			ID:    board.NewID(board.KindColumn),
			Title: title,
			Type:  InferType(title),
		}})
	}
	return out
}

func values(row []string, cols []sourceColumn) board.Cells {
	cells := make(board.Cells, len(cols))
	for _, sc := range cols {
		cells[sc.col.ID] = board.Cell{Type: sc.col.Type, Value: ParseValue(cell(row, sc.index), sc.col.Type)}
	}
	return cells
}

// InferType guesses a column type from its header. Exact names win over
// substrings; anything unrecognised is text.
func InferType(header string) board.ColumnType {
	h := strings.ToLower(strings.TrimSpace(header))
	switch h {
	case "status":
		return board.TypeStatus
	case "person", "owner":
		return board.TypePerson
	case "date", "due date", "send date":
		return board.TypeDate
	case "files", "file":
		return board.TypeFiles
	case "link", "url":
		return board.TypeLink
	}
	switch {
	case strings.Contains(h, "time tracker"), strings.Contains(h, "time tracking"):
		return board.TypeTimeTracker
	case strings.Contains(h, "status"):
		return board.TypeStatus
	case strings.Contains(h, "person"), strings.Contains(h, "owner"):
		return board.TypePerson
	case strings.Contains(h, "date"), strings.Contains(h, "due"):
		return board.TypeDate
	case strings.Contains(h, "file"), strings.Contains(h, "attachment"):
		return board.TypeFiles
	case strings.Contains(h, "link"), strings.Contains(h, "url"):
		return board.TypeLink
	case strings.Contains(h, "time"):
		return board.TypeTimeTracker
	}
	return board.TypeText
}

var dateLayouts = []string{board.DateLayout, "01/02/2006", "1/2/2006", "2006/01/02", "Jan 2, 2006", "2 Jan 2006"}

// ParseValue converts one raw spreadsheet cell to a value of type t. Blank
// cells take the blank default of t.
func ParseValue(raw string, t board.ColumnType) board.CellValue {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return board.DefaultValue(t)
	}
	switch t {
	case board.TypeDate:
		return board.Text(parseDate(raw))
	case board.TypePerson:
		return board.People(board.PeopleFromNames(raw)...)
	case board.TypeFiles:
		if !strings.Contains(raw, "http") {
			return board.Files()
		}
		var files []board.File
		for _, u := range strings.Split(raw, ",") {
			if u = strings.TrimSpace(u); u != "" {
				files = append(files, board.File{Name: u})
			}
		}
		return board.Files(files...)
	case board.TypeStatus:
		return board.Coerce(board.Text(raw), board.TypeStatus)
	case board.TypeTimeTracker, board.TypeUpdates:
		return board.DefaultValue(t)
	default:
		return board.Text(raw)
	}
}

// parseDate accepts Excel serial numbers and common date layouts. Anything
// else is kept as written.
func parseDate(raw string) string {
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format(board.DateLayout)
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(board.DateLayout)
		}
	}
	return raw
}
