// Package board holds the in-memory board aggregate: a board with its column
// schema and the ordered group → item → subitem tree carrying typed cells.
//
// Every operation on *Board returns a new aggregate and leaves its receiver
// untouched, so callers can keep the previous value as a rollback snapshot.
package board

import (
	"slices"
)

type Board struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	OrganizationID string   `json:"organizationId"`
	Columns        []Column `json:"columns"`
	Groups         []Group  `json:"groups"`
	People         []Person `json:"people,omitempty"`
}

type Column struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Type  ColumnType `json:"type"`
	Width int        `json:"width,omitempty"`
}

type Group struct {
	ID       string `json:"id"`
	BoardID  string `json:"boardId"`
	Title    string `json:"title"`
	Position int    `json:"position"`
	Items    []Item `json:"items"`
}

type Item struct {
	ID       string    `json:"id"`
	BoardID  string    `json:"boardId"`
	GroupID  string    `json:"groupId"`
	Name     string    `json:"name"`
	Position int       `json:"position"`
	Columns  Cells     `json:"columns"`
	Subitems []Subitem `json:"subitems"`
}

type Subitem struct {
	ID       string `json:"id"`
	BoardID  string `json:"boardId"`
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Columns  Cells  `json:"columns"`
}

// Person is a board-scoped assignee. Cells embed copies of it.
type Person struct {
	ID      string `json:"id"`
	BoardID string `json:"boardId,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Color   string `json:"color"`
}

type File struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Cell is the stored value of one (item, column) pair. Type is the column type
// the value was written under.
type Cell struct {
	Type  ColumnType `json:"type"`
	Value CellValue  `json:"value"`
}

// Cells maps column id to cell.
type Cells map[string]Cell

func (c Cells) Clone() Cells {
	if c == nil {
		return nil
	}
	out := make(Cells, len(c))
	for k, v := range c {
		out[k] = Cell{Type: v.Type, Value: v.Value.Clone()}
	}
	return out
}

// EntityType discriminates what an update thread is attached to.
type EntityType string

const (
	EntityGroup   EntityType = "group"
	EntityItem    EntityType = "item"
	EntitySubitem EntityType = "subitem"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityGroup, EntityItem, EntitySubitem:
		return true
	}
	return false
}

func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := *b
	out.Columns = slices.Clone(b.Columns)
	out.People = slices.Clone(b.People)
	if b.Groups != nil {
		out.Groups = make([]Group, len(b.Groups))
		for i, g := range b.Groups {
			out.Groups[i] = g.Clone()
		}
	}
	return &out
}

func (g Group) Clone() Group {
	out := g
	if g.Items != nil {
		out.Items = make([]Item, len(g.Items))
		for i, it := range g.Items {
			out.Items[i] = it.Clone()
		}
	}
	return out
}

func (it Item) Clone() Item {
	out := it
	out.Columns = it.Columns.Clone()
	if it.Subitems != nil {
		out.Subitems = make([]Subitem, len(it.Subitems))
		for i, s := range it.Subitems {
			out.Subitems[i] = s.Clone()
		}
	}
	return out
}

func (s Subitem) Clone() Subitem {
	out := s
	out.Columns = s.Columns.Clone()
	return out
}
