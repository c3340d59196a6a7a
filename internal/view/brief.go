package view

import (
	"slices"
	"time"

	"orderlyflow/internal/board"
)

// briefHorizon is how far ahead the daily brief looks.
const briefHorizon = 3 * 24 * time.Hour

type Task struct {
	ID         string
	Name       string
	Person     board.Person
	GroupID    string
	GroupTitle string
	ParentID   string
	Status     string
	Due        time.Time
	Overdue    bool
	IsItem     bool
}

type Day struct {
	Date  string
	Tasks []Task
}

// DailyBrief lists assigned items and subitems that are overdue or due within
// three days of today, one task per assignee, grouped by due date. A non-empty
// personID restricts the brief to that person.
func DailyBrief(b *board.Board, today time.Time, personID string) []Day {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	horizon := start.Add(briefHorizon)

	dateCol, hasDate := b.FirstColumnOfType(board.TypeDate)
	personCol, hasPerson := b.FirstColumnOfType(board.TypePerson)
	if !hasDate || !hasPerson {
		return nil
	}
	statusCol, _ := b.StatusColumn()

	var tasks []Task
	add := func(g board.Group, id, parentID, name string, cells board.Cells) {
		raw := cells[dateCol.ID].Value.Str()
		people := cells[personCol.ID].Value.PeopleList()
		if raw == "" || len(people) == 0 {
			return
		}
		due, err := time.ParseInLocation(board.DateLayout, raw, today.Location())
		if err != nil || due.After(horizon) {
			return
		}
		for _, p := range people {
			if personID != "" && p.ID != personID {
				continue
			}
			tasks = append(tasks, Task{
				ID:         id,
				Name:       name,
				Person:     p,
				GroupID:    g.ID,
				GroupTitle: g.Title,
				ParentID:   parentID,
				Status:     cells[statusCol.ID].Value.Str(),
				Due:        due,
				Overdue:    due.Before(start),
				IsItem:     parentID == "",
			})
		}
	}

	for _, g := range b.Groups {
		for _, it := range g.Items {
			add(g, it.ID, "", it.Name, it.Columns)
			for _, s := range it.Subitems {
				add(g, s.ID, it.ID, it.Name+" > "+s.Name, s.Columns)
			}
		}
	}

	slices.SortStableFunc(tasks, func(a, c Task) int { return a.Due.Compare(c.Due) })

	var days []Day
	for _, t := range tasks {
		key := t.Due.Format(board.DateLayout)
		if n := len(days); n > 0 && days[n-1].Date == key {
			days[n-1].Tasks = append(days[n-1].Tasks, t)
			continue
		}
		days = append(days, Day{Date: key, Tasks: []Task{t}})
	}
	return days
}
