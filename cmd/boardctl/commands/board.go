package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"orderlyflow/internal/api"
	"orderlyflow/internal/board"
	"orderlyflow/internal/importer"
	"orderlyflow/internal/optimistic"
	"orderlyflow/internal/view"

	"github.com/spf13/cobra"
)

func newBoardsCommand(opts *options) *cobra.Command {
	var create string
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List boards, or create one with --create",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.log.Close()
			ctx := cmd.Context()
			if create != "" {
				b, err := s.client.CreateBoard(ctx, api.CreateBoardRequest{Name: create})
				if err != nil {
					return userError(err)
				}
				fmt.Fprintf(s.out, "Created board %s (%s)\n", b.Name, b.ID)
				return nil
			}
			boards, err := s.client.ListBoards(ctx)
			if err != nil {
				return userError(err)
			}
			for _, b := range boards {
				fmt.Fprintf(s.out, "%s\t%s\n", b.ID, b.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&create, "create", "", "name of a board to create")
	return cmd
}

func newShowCommand(opts *options) *cobra.Command {
	var (
		vo       view.Options
		desc     bool
		subitems bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the board, filtered and sorted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.log.Close()
			if opts.boardID == "" {
				return fmt.Errorf("--board is required")
			}
			b, err := s.client.GetBoard(cmd.Context(), opts.boardID)
			if err != nil {
				return userError(err)
			}
			if desc {
				vo.SortDirection = view.Desc
			}
			return renderBoard(s.out, view.Project(b, vo), subitems, time.Now())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&vo.Search, "search", "s", "", "only items whose name contains this text")
	f.StringSliceVar(&vo.StatusFilter, "status", nil, "only items with one of these status ids")
	f.BoolVar(&vo.HideDone, "hide-done", false, "hide items whose status is done")
	f.StringVar(&vo.PersonFilter, "person", "", "only items assigned to this person")
	f.StringVar(&vo.SortColumnID, "sort", "", "column id to sort by, or "+view.SortByName)
	f.BoolVar(&desc, "desc", false, "sort descending")
	f.StringSliceVar(&vo.HiddenColumnIDs, "hide-column", nil, "column ids to hide")
	f.BoolVar(&subitems, "subitems", false, "print subitems under their items")
	return cmd
}

func newBriefCommand(opts *options) *cobra.Command {
	var person string
	cmd := &cobra.Command{
		Use:   "brief",
		Short: "List assigned work that is overdue or due within three days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.log.Close()
			if opts.boardID == "" {
				return fmt.Errorf("--board is required")
			}
			b, err := s.client.GetBoard(cmd.Context(), opts.boardID)
			if err != nil {
				return userError(err)
			}
			personID := ""
			if person != "" {
				p, ok := b.Person(person)
				if !ok {
					return fmt.Errorf("no person named %q on this board", person)
				}
				personID = p.ID
			}
			return renderBrief(s.out, view.DailyBrief(b, time.Now(), personID))
		},
	}
	cmd.Flags().StringVar(&person, "person", "", "only this person's work")
	return cmd
}

func newGroupCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "group", Short: "Add, rename, delete or reorder groups"}
	cmd.AddCommand(
		boardCommand(opts, &cobra.Command{Use: "add TITLE", Args: cobra.ExactArgs(1)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				g, err := e.AddGroup(ctx, args[0])
				if err == nil {
					fmt.Fprintf(s.out, "Added group %s\n", g.ID)
				}
				return err
			}),
		boardCommand(opts, &cobra.Command{Use: "rename GROUP_ID TITLE", Args: cobra.ExactArgs(2)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				return e.RenameGroup(ctx, args[0], args[1])
			}),
		boardCommand(opts, &cobra.Command{Use: "delete GROUP_ID", Args: cobra.ExactArgs(1)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				return e.DeleteGroup(ctx, args[0])
			}),
		boardCommand(opts, &cobra.Command{Use: "reorder FROM TO", Short: "Move the group at index FROM to index TO", Args: cobra.ExactArgs(2)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				from, to, err := indexes(args[0], args[1])
				if err != nil {
					return err
				}
				return e.Reorder(ctx, e.Board().ID, from, to)
			}),
	)
	return cmd
}

func newItemCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "item", Short: "Add, edit, move or delete items"}
	var group string
	add := boardCommand(opts, &cobra.Command{Use: "add NAME", Args: cobra.ExactArgs(1)},
		func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
			groupID := group
			if groupID == "" {
				b := e.Board()
				if len(b.Groups) == 0 {
					return fmt.Errorf("board has no groups; add one first")
				}
				groupID = b.Groups[0].ID
			}
			it, err := e.AddItem(ctx, groupID, args[0])
			if err != nil {
				return err
			}
			if it.ID == "" {
				return fmt.Errorf("no group %s", groupID)
			}
			fmt.Fprintf(s.out, "Added item %s\n", it.ID)
			return nil
		})
	add.Flags().StringVarP(&group, "group", "g", "", "group id (default: first group)")

	var toIndex int
	move := boardCommand(opts, &cobra.Command{Use: "move ITEM_ID GROUP_ID", Args: cobra.ExactArgs(2)},
		func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
			return e.MoveItem(ctx, args[0], args[1], toIndex)
		})
	move.Flags().IntVar(&toIndex, "index", 0, "position in the target group")

	cmd.AddCommand(
		add,
		move,
		boardCommand(opts, &cobra.Command{Use: "rename ITEM_ID NAME", Args: cobra.ExactArgs(2)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				return e.RenameItem(ctx, args[0], args[1])
			}),
		boardCommand(opts, &cobra.Command{Use: "set ITEM_ID COLUMN_ID VALUE", Args: cobra.ExactArgs(3)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				v, err := cellValue(e.Board(), args[1], args[2])
				if err != nil {
					return err
				}
				return e.SetItemValue(ctx, args[0], args[1], v)
			}),
		boardCommand(opts, &cobra.Command{Use: "timer ITEM_ID COLUMN_ID start|stop|reset", Args: cobra.ExactArgs(3)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				it, ok := e.Board().Item(args[0])
				if !ok {
					return fmt.Errorf("no item %s", args[0])
				}
				t, err := timerAction(it.Columns[args[1]].Value.TimerValue(), args[2], time.Now())
				if err != nil {
					return err
				}
				return e.SetItemValue(ctx, args[0], args[1], board.Timer(t))
			}),
		boardCommand(opts, &cobra.Command{Use: "delete ITEM_ID", Args: cobra.ExactArgs(1)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				return e.DeleteItem(ctx, args[0])
			}),
		boardCommand(opts, &cobra.Command{Use: "reorder GROUP_ID FROM TO", Args: cobra.ExactArgs(3)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				from, to, err := indexes(args[1], args[2])
				if err != nil {
					return err
				}
				return e.Reorder(ctx, args[0], from, to)
			}),
	)
	return cmd
}

func newSubitemCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "subitem", Short: "Add, edit or delete subitems"}
	cmd.AddCommand(
		boardCommand(opts, &cobra.Command{Use: "add ITEM_ID NAME", Args: cobra.ExactArgs(2)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				sub, err := e.AddSubitem(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if sub.ID == "" {
					return fmt.Errorf("no item %s", args[0])
				}
				fmt.Fprintf(s.out, "Added subitem %s\n", sub.ID)
				return nil
			}),
		boardCommand(opts, &cobra.Command{Use: "rename SUBITEM_ID NAME", Args: cobra.ExactArgs(2)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				return e.RenameSubitem(ctx, args[0], args[1])
			}),
		boardCommand(opts, &cobra.Command{Use: "set SUBITEM_ID COLUMN_ID VALUE", Args: cobra.ExactArgs(3)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				v, err := cellValue(e.Board(), args[1], args[2])
				if err != nil {
					return err
				}
				return e.SetSubitemValue(ctx, args[0], args[1], v)
			}),
		boardCommand(opts, &cobra.Command{Use: "delete SUBITEM_ID", Args: cobra.ExactArgs(1)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				return e.DeleteSubitem(ctx, args[0])
			}),
		boardCommand(opts, &cobra.Command{Use: "reorder ITEM_ID FROM TO", Args: cobra.ExactArgs(3)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				from, to, err := indexes(args[1], args[2])
				if err != nil {
					return err
				}
				return e.Reorder(ctx, args[0], from, to)
			}),
	)
	return cmd
}

func newColumnCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "column", Short: "Change the board's columns"}
	cmd.AddCommand(
		boardCommand(opts, &cobra.Command{Use: "add TITLE TYPE", Args: cobra.ExactArgs(2)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				col, err := e.AddColumn(ctx, args[0], board.ColumnType(args[1]))
				if err == nil {
					fmt.Fprintf(s.out, "Added column %s\n", col.ID)
				}
				return err
			}),
		boardCommand(opts, &cobra.Command{Use: "rename COLUMN_ID TITLE", Args: cobra.ExactArgs(2)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				return e.RenameColumn(ctx, args[0], args[1])
			}),
		boardCommand(opts, &cobra.Command{Use: "resize COLUMN_ID WIDTH", Args: cobra.ExactArgs(2)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				w, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("width must be a number: %w", err)
				}
				return e.ResizeColumn(ctx, args[0], w)
			}),
		boardCommand(opts, &cobra.Command{Use: "type COLUMN_ID TYPE", Args: cobra.ExactArgs(2)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				return e.ChangeColumnType(ctx, args[0], board.ColumnType(args[1]))
			}),
		boardCommand(opts, &cobra.Command{Use: "delete COLUMN_ID", Args: cobra.ExactArgs(1)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				return e.DeleteColumn(ctx, args[0])
			}),
	)
	return cmd
}

func newPersonCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "person", Short: "Manage the board's people"}
	cmd.AddCommand(
		boardCommand(opts, &cobra.Command{Use: "add NAME", Short: "Add an organization member to the board", Args: cobra.ExactArgs(1)},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				p, err := e.AddPerson(ctx, args[0])
				if err == nil {
					fmt.Fprintf(s.out, "%s\t%s\t%s\n", p.ID, p.Name, p.Color)
				}
				return err
			}),
		boardCommand(opts, &cobra.Command{Use: "list", Args: cobra.NoArgs},
			func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
				for _, p := range e.Board().PeopleOnBoard() {
					fmt.Fprintf(s.out, "%s\t%s\t%s\n", p.ID, p.Name, p.Email)
				}
				return nil
			}),
	)
	return cmd
}

func indexes(from, to string) (int, int, error) {
	f, err := strconv.Atoi(from)
	if err != nil {
		return 0, 0, fmt.Errorf("FROM must be a number: %w", err)
	}
	t, err := strconv.Atoi(to)
	if err != nil {
		return 0, 0, fmt.Errorf("TO must be a number: %w", err)
	}
	return f, t, nil
}

// cellValue parses raw the way a spreadsheet cell of the column's type is
// read: comma-separated people, status labels or ids, dates in common
// layouts.
func cellValue(b *board.Board, columnID, raw string) (board.CellValue, error) {
	col, ok := b.Column(columnID)
	if !ok {
		return board.CellValue{}, fmt.Errorf("no column %s", columnID)
	}
	if col.Type == board.TypePerson {
		var people []board.Person
		for _, p := range board.PeopleFromNames(raw) {
			if known, ok := b.Person(p.Name); ok {
				p = known
			}
			people = append(people, p)
		}
		return board.People(people...), nil
	}
	if col.Type == board.TypeStatus {
		if _, ok := board.LookupStatus(raw); ok {
			return board.Text(raw), nil
		}
	}
	return importer.ParseValue(raw, col.Type), nil
}

func timerAction(t board.TimeTracker, action string, now time.Time) (board.TimeTracker, error) {
	switch action {
	case "start":
		return t.Start(now.UnixMilli()), nil
	case "stop":
		return t.Stop(now.UnixMilli()), nil
	case "reset":
		return t.Reset(), nil
	}
	return t, fmt.Errorf("unknown timer action %q", action)
}
