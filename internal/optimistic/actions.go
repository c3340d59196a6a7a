package optimistic

import (
	"context"
	"slices"
	"strings"

	"orderlyflow/internal/api"
	"orderlyflow/internal/apperr"
	"orderlyflow/internal/board"
)

func ptr[T any](v T) *T { return &v }

func noop() (plan, error) { return plan{}, nil }

// single wraps one request as a one-stage plan.
func single(replay func(*board.Board) *board.Board, r request) plan {
	return plan{replay: replay, stages: [][]request{{r}}}
}

// Board and columns. Column changes persist the whole column list.

func (e *Engine) RenameBoard(ctx context.Context, name string) error {
	return e.mutate(ctx, "board.rename", []string{"board"}, func(cur *board.Board) (plan, error) {
		req := api.UpdateBoardRequest{Name: &name}
		if err := e.check(req); err != nil {
			return plan{}, err
		}
		if cur.Name == name {
			return noop()
		}
		return single(func(b *board.Board) *board.Board {
			next := b.Clone()
			next.Name = name
			return next
		}, func(ctx context.Context) error {
			return e.remote.UpdateBoard(ctx, cur.ID, req)
		}), nil
	})
}

func (e *Engine) columnsChange(ctx context.Context, kind string, replay func(*board.Board) *board.Board) error {
	return e.mutate(ctx, kind, []string{"board"}, func(cur *board.Board) (plan, error) {
		next := replay(cur)
		if next == cur {
			return noop()
		}
		cols := slices.Clone(next.Columns)
		return single(replay, func(ctx context.Context) error {
			return e.remote.UpdateBoard(ctx, cur.ID, api.UpdateBoardRequest{Columns: &cols})
		}), nil
	})
}

func (e *Engine) AddColumn(ctx context.Context, title string, t board.ColumnType) (board.Column, error) {
	col, ok := board.NewColumn(title, t)
	if !ok {
		err := apperr.Validation("unknown column type %q", t)
		e.reject("column.add", err)
		return board.Column{}, err
	}
	err := e.columnsChange(ctx, "column.add", func(b *board.Board) *board.Board { return b.InsertColumn(col) })
	if err != nil {
		return board.Column{}, err
	}
	return col, nil
}

func (e *Engine) DeleteColumn(ctx context.Context, columnID string) error {
	return e.columnsChange(ctx, "column.delete", func(b *board.Board) *board.Board { return b.DeleteColumn(columnID) })
}

func (e *Engine) RenameColumn(ctx context.Context, columnID, title string) error {
	return e.columnsChange(ctx, "column.rename", func(b *board.Board) *board.Board { return b.RenameColumn(columnID, title) })
}

func (e *Engine) ResizeColumn(ctx context.Context, columnID string, width int) error {
	return e.columnsChange(ctx, "column.resize", func(b *board.Board) *board.Board { return b.ResizeColumn(columnID, width) })
}

func (e *Engine) ChangeColumnType(ctx context.Context, columnID string, t board.ColumnType) error {
	return e.columnsChange(ctx, "column.type", func(b *board.Board) *board.Board { return b.ChangeColumnType(columnID, t) })
}

// Groups.

func (e *Engine) AddGroup(ctx context.Context, title string) (board.Group, error) {
	var g board.Group
	err := e.mutate(ctx, "group.create", []string{"board"}, func(cur *board.Board) (plan, error) {
		g = cur.NewGroup(title)
		req := api.CreateGroupRequest{ID: g.ID, Title: g.Title, Position: ptr(g.Position)}
		if err := e.check(req); err != nil {
			return plan{}, err
		}
		return single(func(b *board.Board) *board.Board { return b.InsertGroup(g) },
			func(ctx context.Context) error { return e.remote.CreateGroup(ctx, cur.ID, req) }), nil
	})
	if err != nil {
		return board.Group{}, err
	}
	return g, nil
}

func (e *Engine) RenameGroup(ctx context.Context, groupID, title string) error {
	return e.mutate(ctx, "group.update", []string{groupID}, func(cur *board.Board) (plan, error) {
		replay := func(b *board.Board) *board.Board { return b.UpdateGroupTitle(groupID, title) }
		return single(replay, func(ctx context.Context) error {
			return e.remote.UpdateGroup(ctx, cur.ID, groupID, api.UpdateGroupRequest{Title: &title})
		}), nil
	})
}

func (e *Engine) DeleteGroup(ctx context.Context, groupID string) error {
	return e.mutate(ctx, "group.delete", []string{"board", groupID}, func(cur *board.Board) (plan, error) {
		return single(func(b *board.Board) *board.Board { return b.DeleteGroup(groupID) },
			func(ctx context.Context) error { return e.remote.DeleteGroup(ctx, cur.ID, groupID) }), nil
	})
}

// Items.

// AddItem creates an item at the end of groupID. A missing group is a no-op
// and returns the zero Item.
func (e *Engine) AddItem(ctx context.Context, groupID, name string) (board.Item, error) {
	var it board.Item
	err := e.mutate(ctx, "item.create", []string{groupID}, func(cur *board.Board) (plan, error) {
		var ok bool
		if it, ok = cur.NewItem(groupID, name); !ok {
			return noop()
		}
		req := api.CreateItemRequest{ID: it.ID, GroupID: groupID, Name: it.Name, Columns: it.Columns, Position: ptr(it.Position)}
		if err := e.check(req); err != nil {
			it = board.Item{}
			return plan{}, err
		}
		return single(func(b *board.Board) *board.Board { return b.InsertItem(it) },
			func(ctx context.Context) error { return e.remote.CreateItem(ctx, cur.ID, req) }), nil
	})
	if err != nil {
		return board.Item{}, err
	}
	return it, nil
}

func (e *Engine) RenameItem(ctx context.Context, itemID, name string) error {
	return e.mutate(ctx, "item.update", []string{itemID}, func(cur *board.Board) (plan, error) {
		replay := func(b *board.Board) *board.Board { return b.UpdateItemField(itemID, board.FieldName, name) }
		return single(replay, func(ctx context.Context) error {
			return e.remote.UpdateItem(ctx, cur.ID, itemID, api.UpdateItemRequest{Name: &name})
		}), nil
	})
}

// SetItemValue writes one cell and persists only that cell.
func (e *Engine) SetItemValue(ctx context.Context, itemID, columnID string, value board.CellValue) error {
	return e.mutate(ctx, "item.update", []string{itemID}, func(cur *board.Board) (plan, error) {
		replay := func(b *board.Board) *board.Board { return b.UpdateColumnValue(itemID, columnID, value) }
		next := replay(cur)
		if next == cur {
			return noop()
		}
		it, _ := next.Item(itemID)
		cells := board.Cells{columnID: it.Columns[columnID]}
		return single(replay, func(ctx context.Context) error {
			return e.remote.UpdateItem(ctx, cur.ID, itemID, api.UpdateItemRequest{Columns: cells})
		}), nil
	})
}

func (e *Engine) DeleteItem(ctx context.Context, itemID string) error {
	return e.mutate(ctx, "item.delete", []string{itemID}, func(cur *board.Board) (plan, error) {
		return single(func(b *board.Board) *board.Board { return b.DeleteItem(itemID) },
			func(ctx context.Context) error { return e.remote.DeleteItem(ctx, cur.ID, itemID) }), nil
	})
}

// MoveItem moves an item to toGroupID at toIndex, persisting the new group of
// the moved item and the rank of every sibling whose rank changed.
func (e *Engine) MoveItem(ctx context.Context, itemID, toGroupID string, toIndex int) error {
	return e.mutate(ctx, "item.move", []string{itemID, toGroupID}, func(cur *board.Board) (plan, error) {
		it, ok := cur.Item(itemID)
		if !ok {
			return noop()
		}
		replay := func(b *board.Board) *board.Board { return b.MoveItem(itemID, toGroupID, toIndex) }
		next := replay(cur)
		if next == cur {
			return noop()
		}
		var stage []request
		for _, container := range slices.Compact([]string{it.GroupID, toGroupID}) {
			for _, r := range cur.ChangedRanks(next, container) {
				req := api.UpdateItemRequest{Position: ptr(r.Position)}
				if r.ID == itemID {
					req.GroupID = ptr(toGroupID)
				}
				stage = append(stage, func(ctx context.Context) error {
					return e.remote.UpdateItem(ctx, cur.ID, r.ID, req)
				})
			}
		}
		return plan{replay: replay, stages: [][]request{stage}}, nil
	})
}

// Subitems.

func (e *Engine) AddSubitem(ctx context.Context, itemID, name string) (board.Subitem, error) {
	var s board.Subitem
	err := e.mutate(ctx, "subitem.create", []string{itemID}, func(cur *board.Board) (plan, error) {
		var ok bool
		if s, ok = cur.NewSubitem(itemID, name); !ok {
			return noop()
		}
		req := api.CreateSubitemRequest{ID: s.ID, ItemID: itemID, Name: s.Name, Columns: s.Columns, Position: ptr(s.Position)}
		if err := e.check(req); err != nil {
			s = board.Subitem{}
			return plan{}, err
		}
		return single(func(b *board.Board) *board.Board { return b.InsertSubitem(s) },
			func(ctx context.Context) error { return e.remote.CreateSubitem(ctx, cur.ID, req) }), nil
	})
	if err != nil {
		return board.Subitem{}, err
	}
	return s, nil
}

func (e *Engine) RenameSubitem(ctx context.Context, subitemID, name string) error {
	return e.mutate(ctx, "subitem.update", []string{subitemID}, func(cur *board.Board) (plan, error) {
		replay := func(b *board.Board) *board.Board { return b.UpdateSubitemField(subitemID, board.FieldName, name) }
		return single(replay, func(ctx context.Context) error {
			return e.remote.UpdateSubitem(ctx, cur.ID, subitemID, api.UpdateSubitemRequest{Name: &name})
		}), nil
	})
}

func (e *Engine) SetSubitemValue(ctx context.Context, subitemID, columnID string, value board.CellValue) error {
	return e.mutate(ctx, "subitem.update", []string{subitemID}, func(cur *board.Board) (plan, error) {
		replay := func(b *board.Board) *board.Board { return b.UpdateSubitemColumnValue(subitemID, columnID, value) }
		next := replay(cur)
		if next == cur {
			return noop()
		}
		s, _ := next.Subitem(subitemID)
		cells := board.Cells{columnID: s.Columns[columnID]}
		return single(replay, func(ctx context.Context) error {
			return e.remote.UpdateSubitem(ctx, cur.ID, subitemID, api.UpdateSubitemRequest{Columns: cells})
		}), nil
	})
}

func (e *Engine) DeleteSubitem(ctx context.Context, subitemID string) error {
	return e.mutate(ctx, "subitem.delete", []string{subitemID}, func(cur *board.Board) (plan, error) {
		return single(func(b *board.Board) *board.Board { return b.DeleteSubitem(subitemID) },
			func(ctx context.Context) error { return e.remote.DeleteSubitem(ctx, cur.ID, subitemID) }), nil
	})
}

// Reorder moves the child at fromIndex of containerID to toIndex. The board
// id names the group list, a group id its items and an item id its
// subitems. Every sibling whose rank changed is persisted; moving an element
// onto its own index sends nothing.
func (e *Engine) Reorder(ctx context.Context, containerID string, fromIndex, toIndex int) error {
	key := containerID
	if containerID == e.boardID() {
		key = "board"
	}
	return e.mutate(ctx, "reorder", []string{key}, func(cur *board.Board) (plan, error) {
		kind := cur.ContainerOf(containerID)
		ranks := cur.Ranks(containerID)
		if kind == board.ContainerNone || fromIndex < 0 || fromIndex >= len(ranks) {
			return noop()
		}
		movedID := ranks[fromIndex].ID
		// Replay by id so the same element moves even if earlier pending
		// mutations were dropped from under it.
		replay := func(b *board.Board) *board.Board {
			rs := b.Ranks(containerID)
			from := slices.IndexFunc(rs, func(r board.Rank) bool { return r.ID == movedID })
			if from < 0 || len(rs) == 0 {
				return b
			}
			return b.ReorderSiblings(containerID, from, min(toIndex, len(rs)-1))
		}
		next := cur.ReorderSiblings(containerID, fromIndex, toIndex)
		if next == cur {
			return noop()
		}
		var stage []request
		for _, r := range cur.ChangedRanks(next, containerID) {
			stage = append(stage, e.positionRequest(cur.ID, kind, r))
		}
		return plan{replay: replay, stages: [][]request{stage}}, nil
	})
}

func (e *Engine) positionRequest(boardID string, kind board.Container, r board.Rank) request {
	pos := ptr(r.Position)
	switch kind {
	case board.ContainerGroups:
		return func(ctx context.Context) error {
			return e.remote.UpdateGroup(ctx, boardID, r.ID, api.UpdateGroupRequest{Position: pos})
		}
	case board.ContainerItems:
		return func(ctx context.Context) error {
			return e.remote.UpdateItem(ctx, boardID, r.ID, api.UpdateItemRequest{Position: pos})
		}
	default:
		return func(ctx context.Context) error {
			return e.remote.UpdateSubitem(ctx, boardID, r.ID, api.UpdateSubitemRequest{Position: pos})
		}
	}
}

// People.

// AddPerson adds an organization member to the board's people. The name must
// match a member, ignoring case; otherwise nothing is sent.
func (e *Engine) AddPerson(ctx context.Context, name string) (board.Person, error) {
	name = strings.TrimSpace(name)
	cur := e.Board()
	if p, ok := cur.Person(name); ok {
		return p, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.timeout)
	members, err := e.remote.ListMembers(lookupCtx, cur.OrganizationID)
	cancel()
	if err != nil {
		e.log.WithError(err).Warnw("Failed to list organization members")
		err = normalize(err)
		e.reject("person.create", err)
		return board.Person{}, err
	}
	idx := slices.IndexFunc(members, func(m api.Member) bool { return strings.EqualFold(m.UserName, name) })
	if name == "" || idx < 0 {
		err := apperr.Validation("Only organization members can be added as people")
		e.reject("person.create", err)
		return board.Person{}, err
	}
	member := members[idx]

	var p board.Person
	err = e.mutate(ctx, "person.create", []string{"people"}, func(cur *board.Board) (plan, error) {
		p = board.Person{
			ID:    board.NewID(board.KindPerson),
			Name:  member.UserName,
			Email: member.UserEmail,
			Color: board.PersonColor(len(cur.People)),
		}
		req := api.CreatePersonRequest{ID: p.ID, Name: p.Name, Email: p.Email, Color: p.Color}
		if err := e.check(req); err != nil {
			return plan{}, err
		}
		return single(func(b *board.Board) *board.Board { return b.InsertPerson(p) },
			func(ctx context.Context) error { return e.remote.CreatePerson(ctx, cur.ID, req) }), nil
	})
	if err != nil {
		return board.Person{}, err
	}
	p.BoardID = cur.ID
	return p, nil
}

// Import.

// Import merges a parsed spreadsheet into the board and persists new
// columns, then groups, then items, then subitems. If any stage fails the
// created groups are deleted again and the column list is restored.
func (e *Engine) Import(ctx context.Context, imp board.Import) error {
	return e.mutate(ctx, "import", []string{"board"}, func(cur *board.Board) (plan, error) {
		if len(imp.Groups) == 0 && len(imp.Columns) == 0 {
			return noop()
		}
		replay := func(b *board.Board) *board.Board { return b.MergeImported(imp.Columns, imp.Groups) }
		next := replay(cur)
		boardID := cur.ID

		var head, items, subitems, undo []request
		if len(next.Columns) > len(cur.Columns) {
			cols := slices.Clone(next.Columns)
			prev := slices.Clone(cur.Columns)
			head = append(head, func(ctx context.Context) error {
				return e.remote.UpdateBoard(ctx, boardID, api.UpdateBoardRequest{Columns: &cols})
			})
			undo = append(undo, func(ctx context.Context) error {
				return e.remote.UpdateBoard(ctx, boardID, api.UpdateBoardRequest{Columns: &prev})
			})
		}
		for _, g := range next.Groups[len(cur.Groups):] {
			greq := api.CreateGroupRequest{ID: g.ID, Title: g.Title, Position: ptr(g.Position)}
			if err := e.check(greq); err != nil {
				return plan{}, err
			}
			head = append(head, func(ctx context.Context) error { return e.remote.CreateGroup(ctx, boardID, greq) })
			undo = append(undo, func(ctx context.Context) error { return e.remote.DeleteGroup(ctx, boardID, g.ID) })
			for _, it := range g.Items {
				ireq := api.CreateItemRequest{ID: it.ID, GroupID: g.ID, Name: it.Name, Columns: it.Columns, Position: ptr(it.Position)}
				if err := e.check(ireq); err != nil {
					return plan{}, err
				}
				items = append(items, func(ctx context.Context) error { return e.remote.CreateItem(ctx, boardID, ireq) })
				for _, s := range it.Subitems {
					sreq := api.CreateSubitemRequest{ID: s.ID, ItemID: it.ID, Name: s.Name, Columns: s.Columns, Position: ptr(s.Position)}
					if err := e.check(sreq); err != nil {
						return plan{}, err
					}
					subitems = append(subitems, func(ctx context.Context) error { return e.remote.CreateSubitem(ctx, boardID, sreq) })
				}
			}
		}

		var stages [][]request
		for _, st := range [][]request{head, items, subitems} {
			if len(st) > 0 {
				stages = append(stages, st)
			}
		}
		// Undo runs newest first: groups before the column list.
		slices.Reverse(undo)
		return plan{replay: replay, stages: stages, undo: undo}, nil
	})
}
