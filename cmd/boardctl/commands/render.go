package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"orderlyflow/internal/board"
	"orderlyflow/internal/view"
)

func formatCell(col board.Column, cells board.Cells, now time.Time) string {
	cell, ok := cells[col.ID]
	if !ok {
		return ""
	}
	v := cell.Value
	switch col.Type {
	case board.TypeStatus:
		if o, ok := board.LookupStatus(v.Str()); ok {
			return o.Label
		}
		return v.Str()
	case board.TypePerson:
		names := make([]string, 0, len(v.PeopleList()))
		for _, p := range v.PeopleList() {
			names = append(names, p.Name)
		}
		return strings.Join(names, ", ")
	case board.TypeFiles:
		if n := len(v.FileList()); n > 0 {
			return fmt.Sprintf("%d file(s)", n)
		}
		return ""
	case board.TypeTimeTracker:
		t := v.TimerValue()
		s := board.FormatDuration(t.Elapsed(now.UnixMilli()))
		if t.IsRunning {
			s += " ▶"
		}
		return s
	case board.TypeUpdates:
		return ""
	}
	return v.Str()
}

func summaryLine(s view.Summary) string {
	switch s.Type {
	case board.TypeStatus:
		var parts []string
		for _, o := range board.StatusOptions() {
			if n := s.StatusCounts[o.ID]; n > 0 && o.Label != "" {
				parts = append(parts, fmt.Sprintf("%s %d", o.Label, n))
			}
		}
		return strings.Join(parts, ", ")
	case board.TypePerson:
		return fmt.Sprintf("%d people", s.People)
	case board.TypeDate:
		return fmt.Sprintf("%d/%d dated", s.WithDates, s.Total)
	case board.TypeTimeTracker:
		return fmt.Sprintf("%dh %02dm", s.Hours(), s.Minutes())
	case board.TypeFiles:
		return fmt.Sprintf("%d files", s.Files)
	case board.TypeText, board.TypeLink:
		return fmt.Sprintf("%d/%d filled", s.Filled, s.Total)
	}
	return ""
}

// renderBoard prints each group as a table with a summary footer.
func renderBoard(w io.Writer, p *view.Projected, withSubitems bool, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintf(tw, "%s  (%d items)\n", p.Name, p.ItemCount())
	for _, g := range p.Groups {
		fmt.Fprintf(tw, "\n■ %s\t[%s]\n", g.Title, g.ID)

		header := []string{"ID", "Name"}
		for _, c := range p.Columns {
			header = append(header, c.Title)
		}
		fmt.Fprintln(tw, strings.Join(header, "\t"))

		for _, it := range g.Items {
			row := []string{it.ID, it.Name}
			for _, c := range p.Columns {
				row = append(row, formatCell(c, it.Columns, now))
			}
			fmt.Fprintln(tw, strings.Join(row, "\t"))
			if !withSubitems {
				continue
			}
			for _, s := range it.Subitems {
				row := []string{"  " + s.ID, "  └ " + s.Name}
				for _, c := range p.Columns {
					row = append(row, formatCell(c, s.Columns, now))
				}
				fmt.Fprintln(tw, strings.Join(row, "\t"))
			}
		}

		footer := []string{"", ""}
		for _, c := range p.Columns {
			s, ok := view.Summarize(c, g.Items)
			if !ok {
				footer = append(footer, "")
				continue
			}
			footer = append(footer, summaryLine(s))
		}
		fmt.Fprintln(tw, strings.Join(footer, "\t"))
	}
	return tw.Flush()
}

func renderBrief(w io.Writer, days []view.Day) error {
	if len(days) == 0 {
		_, err := fmt.Fprintln(w, "Nothing due in the next three days.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	for _, d := range days {
		fmt.Fprintf(tw, "%s\n", d.Date)
		for _, t := range d.Tasks {
			flag := ""
			if t.Overdue {
				flag = "overdue"
			}
			label := t.Status
			if o, ok := board.LookupStatus(t.Status); ok && o.Label != "" {
				label = o.Label
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", t.Name, t.Person.Name, t.GroupTitle, label, flag)
		}
	}
	return tw.Flush()
}
