package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValueKind is the shape of a CellValue.
type ValueKind int

const (
	KindString ValueKind = iota
	KindPeople
	KindFiles
	KindTimer
)

func (k ValueKind) String() string {
	switch k {
	case KindPeople:
		return "people"
	case KindFiles:
		return "files"
	case KindTimer:
		return "timer"
	default:
		return "string"
	}
}

// CellValue is a tagged union over the shapes a cell can hold. The zero value
// is the empty string.
type CellValue struct {
	kind   ValueKind
	str    string
	people []Person
	files  []File
	timer  TimeTracker
}

func Text(s string) CellValue {
	return CellValue{kind: KindString, str: s}
}

func People(p ...Person) CellValue {
	return CellValue{kind: KindPeople, people: append([]Person{}, p...)}
}

func Files(f ...File) CellValue {
	return CellValue{kind: KindFiles, files: append([]File{}, f...)}
}

func Timer(t TimeTracker) CellValue {
	return CellValue{kind: KindTimer, timer: t.clone()}
}

func (v CellValue) Kind() ValueKind { return v.kind }

// Str returns the string payload, or "" for non-string values.
func (v CellValue) Str() string { return v.str }

func (v CellValue) PeopleList() []Person { return slices.Clone(v.people) }

func (v CellValue) FileList() []File { return slices.Clone(v.files) }

func (v CellValue) TimerValue() TimeTracker { return v.timer.clone() }

// HasValue reports whether the value is populated: a non-empty string or
// list, or any time tracker.
func (v CellValue) HasValue() bool {
	switch v.kind {
	case KindPeople:
		return len(v.people) > 0
	case KindFiles:
		return len(v.files) > 0
	case KindTimer:
		return true
	default:
		return v.str != ""
	}
}

// SortKey is the string a value compares by. Lists join their names.
func (v CellValue) SortKey() string {
	switch v.kind {
	case KindPeople:
		names := make([]string, len(v.people))
		for i, p := range v.people {
			names[i] = p.Name
		}
		return strings.Join(names, ", ")
	case KindFiles:
		names := make([]string, len(v.files))
		for i, f := range v.files {
			names[i] = f.Name
		}
		return strings.Join(names, ", ")
	case KindTimer:
		return fmt.Sprintf("%020d", v.timer.TotalSeconds)
	default:
		return v.str
	}
}

func (v CellValue) Clone() CellValue {
	out := v
	out.people = slices.Clone(v.people)
	out.files = slices.Clone(v.files)
	out.timer = v.timer.clone()
	return out
}

func (v CellValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindPeople:
		if v.people == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.people)
	case KindFiles:
		if v.files == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.files)
	case KindTimer:
		return json.Marshal(v.timer)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON decodes a value without a type hint, guessing from its shape.
// Cell decoding passes the column type instead.
func (v *CellValue) UnmarshalJSON(data []byte) error {
	out, err := DecodeValue("", data)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  ColumnType      `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, err := DecodeValue(raw.Type, raw.Value)
	if err != nil {
		return fmt.Errorf("cell %q: %w", raw.Type, err)
	}
	c.Type = raw.Type
	c.Value = val
	return nil
}

// DecodeValue parses raw JSON into a CellValue. When t is known it selects the
// list shape for empty arrays; otherwise the element shape decides.
func DecodeValue(t ColumnType, raw []byte) (CellValue, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return DefaultValue(t), nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return CellValue{}, err
		}
		return Text(s), nil
	case '{':
		var tt TimeTracker
		if err := json.Unmarshal(raw, &tt); err != nil {
			return CellValue{}, err
		}
		return Timer(tt), nil
	case '[':
		return decodeList(t, raw)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return CellValue{}, err
		}
		if !b {
			return Text(""), nil
		}
		return Text("true"), nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return CellValue{}, err
		}
		return Text(n.String()), nil
	}
}

func decodeList(t ColumnType, raw []byte) (CellValue, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return CellValue{}, err
	}
	if len(elems) == 0 {
		if t == TypeFiles {
			return Files(), nil
		}
		return People(), nil
	}

	var first map[string]json.RawMessage
	if err := json.Unmarshal(elems[0], &first); err != nil {
		// Bare strings are file URLs.
		var names []string
		if err := json.Unmarshal(raw, &names); err != nil {
			return CellValue{}, err
		}
		files := make([]File, len(names))
		for i, n := range names {
			files[i] = File{Name: n}
		}
		return Files(files...), nil
	}

	_, hasColor := first["color"]
	_, hasSize := first["size"]
	if t == TypeFiles || (t != TypePerson && hasSize && !hasColor) {
		var files []File
		if err := json.Unmarshal(raw, &files); err != nil {
			return CellValue{}, err
		}
		return Files(files...), nil
	}
	var people []Person
	if err := json.Unmarshal(raw, &people); err != nil {
		return CellValue{}, err
	}
	return People(people...), nil
}

// TimeTracker is the value of a time_tracker cell. StartTime is epoch
// milliseconds while running.
type TimeTracker struct {
	TotalSeconds int64  `json:"totalSeconds"`
	IsRunning    bool   `json:"isRunning"`
	StartTime    *int64 `json:"startTime"`
}

func (t TimeTracker) clone() TimeTracker {
	if t.StartTime != nil {
		s := *t.StartTime
		t.StartTime = &s
	}
	return t
}

// Start begins a run at nowMs. Starting a running tracker is a no-op.
func (t TimeTracker) Start(nowMs int64) TimeTracker {
	if t.IsRunning {
		return t.clone()
	}
	return TimeTracker{TotalSeconds: t.TotalSeconds, IsRunning: true, StartTime: &nowMs}
}

// Stop folds the current run into TotalSeconds.
func (t TimeTracker) Stop(nowMs int64) TimeTracker {
	if !t.IsRunning || t.StartTime == nil {
		return TimeTracker{TotalSeconds: t.TotalSeconds}
	}
	elapsed := (nowMs - *t.StartTime) / 1000
	if elapsed < 0 {
		elapsed = 0
	}
	return TimeTracker{TotalSeconds: t.TotalSeconds + elapsed}
}

func (t TimeTracker) Reset() TimeTracker {
	return TimeTracker{}
}

// Elapsed is the total including the running segment, in seconds.
func (t TimeTracker) Elapsed(nowMs int64) int64 {
	return t.Stop(nowMs).TotalSeconds
}

// FormatDuration renders seconds as "1h 05m" or "12m 30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return strconv.FormatInt(h, 10) + "h " + fmt.Sprintf("%02dm", m)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}
