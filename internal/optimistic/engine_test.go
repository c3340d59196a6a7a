package optimistic_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"orderlyflow/internal/api"
	"orderlyflow/internal/apperr"
	"orderlyflow/internal/board"
	"orderlyflow/internal/metrics"
	"orderlyflow/internal/optimistic"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) UpdateBoard(ctx context.Context, boardID string, req api.UpdateBoardRequest) error {
	return m.Called(ctx, boardID, req).Error(0)
}

func (m *MockRemote) CreateGroup(ctx context.Context, boardID string, req api.CreateGroupRequest) error {
	return m.Called(ctx, boardID, req).Error(0)
}

func (m *MockRemote) UpdateGroup(ctx context.Context, boardID, groupID string, req api.UpdateGroupRequest) error {
	return m.Called(ctx, boardID, groupID, req).Error(0)
}

func (m *MockRemote) DeleteGroup(ctx context.Context, boardID, groupID string) error {
	return m.Called(ctx, boardID, groupID).Error(0)
}

func (m *MockRemote) CreateItem(ctx context.Context, boardID string, req api.CreateItemRequest) error {
	return m.Called(ctx, boardID, req).Error(0)
}

func (m *MockRemote) UpdateItem(ctx context.Context, boardID, itemID string, req api.UpdateItemRequest) error {
	return m.Called(ctx, boardID, itemID, req).Error(0)
}

func (m *MockRemote) DeleteItem(ctx context.Context, boardID, itemID string) error {
	return m.Called(ctx, boardID, itemID).Error(0)
}

func (m *MockRemote) CreateSubitem(ctx context.Context, boardID string, req api.CreateSubitemRequest) error {
	return m.Called(ctx, boardID, req).Error(0)
}

func (m *MockRemote) UpdateSubitem(ctx context.Context, boardID, subitemID string, req api.UpdateSubitemRequest) error {
	return m.Called(ctx, boardID, subitemID, req).Error(0)
}

func (m *MockRemote) DeleteSubitem(ctx context.Context, boardID, subitemID string) error {
	return m.Called(ctx, boardID, subitemID).Error(0)
}

func (m *MockRemote) CreatePerson(ctx context.Context, boardID string, req api.CreatePersonRequest) error {
	return m.Called(ctx, boardID, req).Error(0)
}

func (m *MockRemote) ListMembers(ctx context.Context, organizationID string) ([]api.Member, error) {
	args := m.Called(ctx, organizationID)
	members, _ := args.Get(0).([]api.Member)
	return members, args.Error(1)
}

func fixture() *board.Board {
	cells := func(status string) board.Cells {
		return board.Cells{
			"col-status": {Type: board.TypeStatus, Value: board.Text(status)},
			"col-person": {Type: board.TypePerson, Value: board.People()},
		}
	}
	return &board.Board{
		ID:             "board-1",
		Name:           "Roadmap",
		OrganizationID: "org-1",
		Columns: []board.Column{
			{ID: "col-status", Title: "Status", Type: board.TypeStatus},
			{ID: "col-person", Title: "Owner", Type: board.TypePerson},
		},
		Groups: []board.Group{
			{
				ID: "g1", BoardID: "board-1", Title: "Sprint", Position: 0,
				Items: []board.Item{
					{ID: "i1", BoardID: "board-1", GroupID: "g1", Name: "Design", Position: 0, Columns: cells(board.StatusWorking), Subitems: []board.Subitem{}},
					{ID: "i2", BoardID: "board-1", GroupID: "g1", Name: "Build", Position: 1, Columns: cells(""), Subitems: []board.Subitem{}},
				},
			},
			{ID: "g2", BoardID: "board-1", Title: "Backlog", Position: 1, Items: []board.Item{}},
		},
	}
}

type notices struct {
	mu   sync.Mutex
	list []optimistic.Notice
}

func (n *notices) Notify(x optimistic.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, x)
}

func (n *notices) all() []optimistic.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]optimistic.Notice(nil), n.list...)
}

func setupEngine(opts ...optimistic.Option) (*optimistic.Engine, *MockRemote, *notices, *metrics.Sync) {
	remote := new(MockRemote)
	n := &notices{}
	m := metrics.NewSync()
	opts = append([]optimistic.Option{optimistic.WithNotifier(n), optimistic.WithMetrics(m)}, opts...)
	return optimistic.New(fixture(), remote, opts...), remote, n, m
}

func TestRenameItem_ConfirmedMatchesLocalApply(t *testing.T) {
	// Arrange
	engine, remote, n, m := setupEngine()
	remote.On("UpdateItem", mock.Anything, "board-1", "i1", api.UpdateItemRequest{Name: ptr("Design v2")}).Return(nil)

	// Act
	err := engine.RenameItem(context.Background(), "i1", "Design v2")

	// Assert
	require.NoError(t, err)
	want := fixture().UpdateItemField("i1", board.FieldName, "Design v2")
	assert.Equal(t, want, engine.Board())
	assert.Equal(t, want, engine.Confirmed())
	assert.Zero(t, engine.Pending())
	assert.Empty(t, n.all())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("item.update", "confirmed")))
	remote.AssertExpectations(t)
}

func TestSetItemValue_FailureRestoresSnapshot(t *testing.T) {
	// Arrange
	engine, remote, n, m := setupEngine()
	before := engine.Board()
	remote.On("UpdateItem", mock.Anything, "board-1", "i2", mock.Anything).
		Return(apperr.New(apperr.CodeForbidden, "Access denied"))

	// Act
	err := engine.SetItemValue(context.Background(), "i2", "col-status", board.Text(board.StatusDone))

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, before, engine.Board())
	assert.Equal(t, before, engine.Confirmed())
	require.Len(t, n.all(), 1)
	assert.Equal(t, apperr.CodeForbidden, n.all()[0].Code)
	assert.Equal(t, "item.update", n.all()[0].Kind)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("item.update", "rolled_back")))
}

func TestSetItemValue_SendsOnlyTheChangedCell(t *testing.T) {
	engine, remote, _, _ := setupEngine()
	want := api.UpdateItemRequest{Columns: board.Cells{
		"col-status": {Type: board.TypeStatus, Value: board.Text(board.StatusStuck)},
	}}
	remote.On("UpdateItem", mock.Anything, "board-1", "i1", want).Return(nil)

	err := engine.SetItemValue(context.Background(), "i1", "col-status", board.Text(board.StatusStuck))

	require.NoError(t, err)
	remote.AssertExpectations(t)
}

func TestAddItem_ServerRejectsMissingPosition(t *testing.T) {
	// Arrange
	engine, remote, n, _ := setupEngine()
	remote.On("CreateItem", mock.Anything, "board-1", mock.AnythingOfType("api.CreateItemRequest")).
		Return(apperr.Validation("position is required"))

	// Act
	it, err := engine.AddItem(context.Background(), "g1", "Ship")

	// Assert
	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	assert.Empty(t, it.ID)
	assert.Len(t, engine.Board().Groups[0].Items, 2)
	require.Len(t, n.all(), 1)
	assert.Equal(t, "Invalid data: position is required", n.all()[0].Message)
}

func TestAddItem_SendsWhatWasAppliedLocally(t *testing.T) {
	engine, remote, _, _ := setupEngine()
	var sent api.CreateItemRequest
	remote.On("CreateItem", mock.Anything, "board-1", mock.AnythingOfType("api.CreateItemRequest")).
		Run(func(args mock.Arguments) { sent = args.Get(2).(api.CreateItemRequest) }).
		Return(nil)

	it, err := engine.AddItem(context.Background(), "g1", "Ship")

	require.NoError(t, err)
	require.NotNil(t, sent.Position)
	assert.Equal(t, 2, *sent.Position)
	assert.Equal(t, it.ID, sent.ID)
	assert.Equal(t, "g1", sent.GroupID)
	got, ok := engine.Confirmed().Item(it.ID)
	require.True(t, ok)
	assert.Equal(t, it.Columns, got.Columns)
}

func TestAddItem_MissingGroupIsNoop(t *testing.T) {
	engine, remote, n, m := setupEngine()

	it, err := engine.AddItem(context.Background(), "nope", "Ship")

	require.NoError(t, err)
	assert.Empty(t, it.ID)
	assert.Empty(t, n.all())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("item.create", "noop")))
	remote.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestReorder_SameIndexSendsNothing(t *testing.T) {
	engine, remote, _, _ := setupEngine()

	err := engine.Reorder(context.Background(), "g1", 1, 1)

	require.NoError(t, err)
	assert.Equal(t, fixture(), engine.Board())
	remote.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReorder_PersistsEveryChangedPosition(t *testing.T) {
	// Arrange
	engine, remote, _, _ := setupEngine()
	remote.On("UpdateGroup", mock.Anything, "board-1", "g1", api.UpdateGroupRequest{Position: ptr(1)}).Return(nil)
	remote.On("UpdateGroup", mock.Anything, "board-1", "g2", api.UpdateGroupRequest{Position: ptr(0)}).Return(nil)

	// Act
	err := engine.Reorder(context.Background(), "board-1", 0, 1)

	// Assert
	require.NoError(t, err)
	groups := engine.Confirmed().Groups
	assert.Equal(t, "g2", groups[0].ID)
	assert.Equal(t, "g1", groups[1].ID)
	remote.AssertExpectations(t)
}

func TestReorder_PartialFailureRollsBackAll(t *testing.T) {
	engine, remote, _, _ := setupEngine()
	remote.On("UpdateItem", mock.Anything, "board-1", "i1", mock.Anything).Return(nil)
	remote.On("UpdateItem", mock.Anything, "board-1", "i2", mock.Anything).Return(apperr.ErrUnavailable)

	err := engine.Reorder(context.Background(), "g1", 1, 0)

	require.Error(t, err)
	assert.Equal(t, fixture(), engine.Board())
}

func TestMoveItem_SendsGroupAndShiftedPositions(t *testing.T) {
	// Arrange
	engine, remote, _, _ := setupEngine()
	remote.On("UpdateItem", mock.Anything, "board-1", "i1",
		api.UpdateItemRequest{Position: ptr(0), GroupID: ptr("g2")}).Return(nil)
	remote.On("UpdateItem", mock.Anything, "board-1", "i2",
		api.UpdateItemRequest{Position: ptr(0)}).Return(nil)

	// Act
	err := engine.MoveItem(context.Background(), "i1", "g2", 0)

	// Assert
	require.NoError(t, err)
	b := engine.Board()
	require.Len(t, b.Groups[1].Items, 1)
	assert.Equal(t, "g2", b.Groups[1].Items[0].GroupID)
	assert.Equal(t, 0, b.Groups[0].Items[0].Position)
	remote.AssertExpectations(t)
}

func TestRollback_KeepsConcurrentMutationOnOtherEntity(t *testing.T) {
	// Arrange
	engine, remote, _, _ := setupEngine()
	started := make(chan struct{})
	release := make(chan struct{})
	remote.On("UpdateItem", mock.Anything, "board-1", "i1", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(apperr.ErrUnavailable)
	remote.On("UpdateGroup", mock.Anything, "board-1", "g2", mock.Anything).Return(nil)

	// Act
	done := make(chan error, 1)
	go func() { done <- engine.RenameItem(context.Background(), "i1", "Lost") }()
	<-started
	require.NoError(t, engine.RenameGroup(context.Background(), "g2", "Later"))
	mid := engine.Board()
	close(release)
	err := <-done

	// Assert
	require.Error(t, err)
	it, _ := mid.Item("i1")
	assert.Equal(t, "Lost", it.Name, "local apply is visible before confirmation")

	b := engine.Board()
	it, _ = b.Item("i1")
	g, _ := b.Group("g2")
	assert.Equal(t, "Design", it.Name)
	assert.Equal(t, "Later", g.Title)
	assert.Equal(t, b, engine.Confirmed())
}

func TestSameEntity_RequestsAreSerialized(t *testing.T) {
	// Arrange
	engine, remote, _, _ := setupEngine()
	release := make(chan struct{})
	var calls atomic.Int32
	remote.On("UpdateItem", mock.Anything, "board-1", "i1", mock.Anything).
		Run(func(mock.Arguments) {
			if calls.Add(1) == 1 {
				<-release
			}
		}).
		Return(nil)

	// Act
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = engine.RenameItem(context.Background(), "i1", "First")
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = engine.RenameItem(context.Background(), "i1", "Second")
	}()

	// Assert
	assert.Never(t, func() bool { return calls.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	close(release)
	wg.Wait()
	assert.EqualValues(t, 2, calls.Load())
	it, _ := engine.Confirmed().Item("i1")
	assert.Equal(t, "Second", it.Name)
}

func TestTimeout_RollsBackWithTimeoutNotice(t *testing.T) {
	// Arrange
	engine, remote, n, _ := setupEngine(optimistic.WithTimeout(20 * time.Millisecond))
	remote.On("DeleteItem", mock.Anything, "board-1", "i1").
		Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
		Return(context.DeadlineExceeded)

	// Act
	err := engine.DeleteItem(context.Background(), "i1")

	// Assert
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTimeout, apperr.CodeOf(err))
	_, ok := engine.Board().Item("i1")
	assert.True(t, ok)
	require.Len(t, n.all(), 1)
	assert.Equal(t, apperr.CodeTimeout, n.all()[0].Code)
}

func TestAddColumn_UnknownTypeRejected(t *testing.T) {
	engine, remote, n, _ := setupEngine()

	_, err := engine.AddColumn(context.Background(), "Budget", board.ColumnType("money"))

	assert.ErrorIs(t, err, apperr.ErrValidation)
	require.Len(t, n.all(), 1)
	remote.AssertNotCalled(t, "UpdateBoard", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddColumn_SendsFullColumnList(t *testing.T) {
	engine, remote, _, _ := setupEngine()
	var sent api.UpdateBoardRequest
	remote.On("UpdateBoard", mock.Anything, "board-1", mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(2).(api.UpdateBoardRequest) }).
		Return(nil)

	col, err := engine.AddColumn(context.Background(), "Notes", board.TypeText)

	require.NoError(t, err)
	require.NotNil(t, sent.Columns)
	assert.Len(t, *sent.Columns, 3)
	assert.Equal(t, col, (*sent.Columns)[2])
	it, _ := engine.Board().Item("i1")
	assert.Equal(t, board.TypeText, it.Columns[col.ID].Type)
}

func TestAddPerson_RejectsNonMember(t *testing.T) {
	engine, remote, n, _ := setupEngine()
	remote.On("ListMembers", mock.Anything, "org-1").Return([]api.Member{{UserName: "Ana"}}, nil)

	_, err := engine.AddPerson(context.Background(), "Bob")

	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "Only organization members can be added as people")
	require.Len(t, n.all(), 1)
	assert.Empty(t, engine.Board().People)
	remote.AssertNotCalled(t, "CreatePerson", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddPerson_MatchesMemberIgnoringCase(t *testing.T) {
	engine, remote, _, _ := setupEngine()
	remote.On("ListMembers", mock.Anything, "org-1").
		Return([]api.Member{{UserName: "Bob Stone", UserEmail: "bob@example.com"}}, nil)
	remote.On("CreatePerson", mock.Anything, "board-1", mock.MatchedBy(func(r api.CreatePersonRequest) bool {
		return r.Name == "Bob Stone" && r.Email == "bob@example.com" && r.Color == board.PersonColor(0)
	})).Return(nil)

	p, err := engine.AddPerson(context.Background(), "bob stone")

	require.NoError(t, err)
	assert.Equal(t, "Bob Stone", p.Name)
	assert.Equal(t, "board-1", p.BoardID)
	require.Len(t, engine.Confirmed().People, 1)

	again, err := engine.AddPerson(context.Background(), "BOB STONE")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	remote.AssertNumberOfCalls(t, "CreatePerson", 1)
}

func TestImport_FailureUndoesCreatedGroups(t *testing.T) {
	// Arrange
	engine, remote, _, _ := setupEngine()
	imp := board.Import{
		Columns: []board.Column{{ID: "x-notes", Title: "Notes", Type: board.TypeText}},
		Groups: []board.Group{{
			ID: "gi", Title: "Imported",
			Items: []board.Item{{ID: "ii", Name: "Row", Columns: board.Cells{
				"x-notes": {Type: board.TypeText, Value: board.Text("hello")},
			}}},
		}},
	}
	var boardCalls atomic.Int32
	remote.On("UpdateBoard", mock.Anything, "board-1", mock.Anything).
		Run(func(mock.Arguments) { boardCalls.Add(1) }).Return(nil)
	remote.On("CreateGroup", mock.Anything, "board-1", mock.Anything).Return(nil)
	remote.On("CreateItem", mock.Anything, "board-1", mock.Anything).Return(apperr.ErrUnavailable)
	remote.On("DeleteGroup", mock.Anything, "board-1", "gi").Return(nil)

	// Act
	err := engine.Import(context.Background(), imp)

	// Assert
	require.Error(t, err)
	assert.Equal(t, fixture(), engine.Board())
	assert.EqualValues(t, 2, boardCalls.Load(), "columns added then restored")
	remote.AssertCalled(t, "DeleteGroup", mock.Anything, "board-1", "gi")
}

func TestImport_PersistsInStages(t *testing.T) {
	engine, remote, _, _ := setupEngine()
	imp := board.Import{
		Groups: []board.Group{{
			ID: "gi", Title: "Imported",
			Items: []board.Item{{ID: "ii", Name: "Row", Subitems: []board.Subitem{{ID: "si", Name: "Sub"}}}},
		}},
	}
	var order []string
	var mu sync.Mutex
	record := func(s string) func(mock.Arguments) {
		return func(mock.Arguments) { mu.Lock(); order = append(order, s); mu.Unlock() }
	}
	remote.On("CreateGroup", mock.Anything, "board-1", mock.Anything).Run(record("group")).Return(nil)
	remote.On("CreateItem", mock.Anything, "board-1", mock.Anything).Run(record("item")).Return(nil)
	remote.On("CreateSubitem", mock.Anything, "board-1", mock.Anything).Run(record("subitem")).Return(nil)

	err := engine.Import(context.Background(), imp)

	require.NoError(t, err)
	assert.Equal(t, []string{"group", "item", "subitem"}, order)
	remote.AssertNotCalled(t, "UpdateBoard", mock.Anything, mock.Anything, mock.Anything)
	g, ok := engine.Confirmed().Group("gi")
	require.True(t, ok)
	assert.Equal(t, 2, g.Position)
	assert.Equal(t, "ii", g.Items[0].Subitems[0].ItemID)
}

func TestOnChange_SeesApplyAndRollback(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	engine, remote, _, _ := setupEngine(optimistic.WithOnChange(func(b *board.Board) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, b.Name)
	}))
	remote.On("UpdateBoard", mock.Anything, "board-1", mock.Anything).Return(apperr.ErrInternal)

	_ = engine.RenameBoard(context.Background(), "Renamed")

	assert.Equal(t, []string{"Renamed", "Roadmap"}, seen)
}

func ptr[T any](v T) *T { return &v }
