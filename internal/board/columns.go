package board

import (
	"strings"
	"time"
)

type ColumnType string

const (
	TypeText        ColumnType = "text"
	TypePerson      ColumnType = "person"
	TypeStatus      ColumnType = "status"
	TypeDate        ColumnType = "date"
	TypeFiles       ColumnType = "files"
	TypeLink        ColumnType = "link"
	TypeTimeTracker ColumnType = "time_tracker"
	TypeUpdates     ColumnType = "updates"
	TypeItem        ColumnType = "item"
)

// DateLayout is the storage format of date cells.
const DateLayout = "2006-01-02"

// MinColumnWidth bounds ResizeColumn.
const MinColumnWidth = 120

var columnTypes = []ColumnType{
	TypeText, TypePerson, TypeStatus, TypeDate, TypeFiles,
	TypeLink, TypeTimeTracker, TypeUpdates, TypeItem,
}

// ColumnTypes lists every registered type in display order.
func ColumnTypes() []ColumnType {
	return append([]ColumnType(nil), columnTypes...)
}

func (t ColumnType) Valid() bool {
	for _, c := range columnTypes {
		if c == t {
			return true
		}
	}
	return false
}

// DefaultValue is the blank value for t, used when backfilling and importing.
func DefaultValue(t ColumnType) CellValue {
	switch t {
	case TypePerson:
		return People()
	case TypeFiles:
		return Files()
	case TypeTimeTracker:
		return Timer(TimeTracker{})
	default:
		return Text("")
	}
}

// now is swapped by tests.
var now = time.Now

// NewItemDefault is the value a freshly created item gets. Dates start at
// today; everything else matches DefaultValue.
func NewItemDefault(t ColumnType) CellValue {
	if t == TypeDate {
		return Text(now().Format(DateLayout))
	}
	return DefaultValue(t)
}

type StatusOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

const (
	StatusNone    = "none"
	StatusWorking = "working"
	StatusStuck   = "stuck"
	StatusDone    = "done"
	StatusNew     = "new"
)

var statusOptions = []StatusOption{
	{ID: StatusNone, Label: "", Color: "bg-gray-300"},
	{ID: StatusWorking, Label: "Working on it", Color: "bg-yellow-500"},
	{ID: StatusStuck, Label: "Stuck", Color: "bg-red-500"},
	{ID: StatusDone, Label: "Done", Color: "bg-green-500"},
	{ID: StatusNew, Label: "New", Color: "bg-blue-500"},
}

func StatusOptions() []StatusOption {
	return append([]StatusOption(nil), statusOptions...)
}

func LookupStatus(id string) (StatusOption, bool) {
	for _, o := range statusOptions {
		if o.ID == id {
			return o, true
		}
	}
	return StatusOption{}, false
}

// LookupStatusLabel matches a status by its label, ignoring case.
func LookupStatusLabel(label string) (StatusOption, bool) {
	label = strings.TrimSpace(label)
	for _, o := range statusOptions {
		if o.Label != "" && strings.EqualFold(o.Label, label) {
			return o, true
		}
	}
	return StatusOption{}, false
}

var personColors = []string{
	"bg-blue-500", "bg-green-500", "bg-yellow-500", "bg-purple-500", "bg-pink-500",
	"bg-indigo-500", "bg-red-500", "bg-orange-500", "bg-teal-500", "bg-cyan-500",
}

// PersonColor picks the palette color for the i-th person.
func PersonColor(i int) string {
	if i < 0 {
		i = -i
	}
	return personColors[i%len(personColors)]
}

var defaultColumns = []struct {
	key   string
	title string
	typ   ColumnType
}{
	{"person", "Person", TypePerson},
	{"updates", "Updates", TypeUpdates},
	{"status", "Status", TypeStatus},
	{"date", "Date", TypeDate},
	{"files", "Files", TypeFiles},
	{"link", "Link", TypeLink},
	{"time-tracker", "Time Tracker", TypeTimeTracker},
}

// NewDefaultColumns returns the schema of a new board with fresh ids.
func NewDefaultColumns() []Column {
	cols := make([]Column, len(defaultColumns))
	for i, d := range defaultColumns {
		cols[i] = Column{ID: NewID(Kind("col-" + d.key)), Title: d.title, Type: d.typ}
	}
	return cols
}

// Coerce converts v so its shape matches t. Blank values take t's default;
// populated values are kept when compatible and converted otherwise.
func Coerce(v CellValue, t ColumnType) CellValue {
	if !v.HasValue() {
		return DefaultValue(t)
	}
	switch t {
	case TypeText, TypeLink, TypeItem:
		if v.kind == KindTimer {
			return Text("")
		}
		return Text(v.SortKey())
	case TypeStatus:
		if v.kind != KindString {
			return Text("")
		}
		if _, ok := LookupStatus(v.str); ok {
			return v.Clone()
		}
		if o, ok := LookupStatusLabel(v.str); ok {
			return Text(o.ID)
		}
		return Text("")
	case TypeDate:
		if v.kind != KindString {
			return Text("")
		}
		if _, err := time.Parse(DateLayout, v.str); err != nil {
			return Text("")
		}
		return v.Clone()
	case TypePerson:
		switch v.kind {
		case KindPeople:
			return v.Clone()
		case KindString:
			return People(PeopleFromNames(v.str)...)
		}
		return People()
	case TypeFiles:
		switch v.kind {
		case KindFiles:
			return v.Clone()
		case KindString:
			var files []File
			for _, n := range splitList(v.str) {
				files = append(files, File{Name: n})
			}
			return Files(files...)
		}
		return Files()
	default:
		if t == TypeTimeTracker && v.kind == KindTimer {
			return v.Clone()
		}
		return DefaultValue(t)
	}
}

// PeopleFromNames builds palette-colored people from a comma-separated list.
func PeopleFromNames(list string) []Person {
	names := splitList(list)
	people := make([]Person, 0, len(names))
	for i, n := range names {
		people = append(people, Person{ID: NewID(KindPerson), Name: n, Color: PersonColor(i)})
	}
	return people
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
