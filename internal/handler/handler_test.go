package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"orderlyflow/internal/api"
	"orderlyflow/internal/board"
	"orderlyflow/internal/cache"
	"orderlyflow/internal/handler"
	"orderlyflow/internal/middleware"
	"orderlyflow/internal/model"
	"orderlyflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

const (
	testUser = "user-1"
	testOrg  = "org-1"
)

type fixture struct {
	router   *gin.Engine
	boards   *MockBoardRepository
	items    *MockItemRepository
	subitems *MockSubitemRepository
	updates  *MockUpdateRepository
	users    *MockUserRepository
	orgs     *MockOrganizationRepository
}

// asUser stands in for JWTAuthMiddleware.
func asUser(userID, orgID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.OrgIDKey, orgID)
		c.Next()
	}
}

func setupTest() *fixture {
	gin.SetMode(gin.TestMode)
	handler.UseJSONNames()
	f := &fixture{
		router:   gin.New(),
		boards:   new(MockBoardRepository),
		items:    new(MockItemRepository),
		subitems: new(MockSubitemRepository),
		updates:  new(MockUpdateRepository),
		users:    new(MockUserRepository),
		orgs:     new(MockOrganizationRepository),
	}
	boardHandler := handler.NewBoardHandler(f.boards, nil)
	itemHandler := handler.NewItemHandler(f.items, f.subitems, f.boards, nil)
	updateHandler := handler.NewUpdateHandler(f.updates, f.boards, f.users, cache.Nop{}, nil)
	memberHandler := handler.NewMemberHandler(f.orgs, nil)

	r := f.router.Group("/api", asUser(testUser, testOrg))
	r.POST("/boards", boardHandler.Create)
	r.GET("/boards/:id", boardHandler.Get)
	r.PATCH("/boards/:id", boardHandler.Update)
	r.POST("/boards/:id/items", itemHandler.CreateItem)
	r.PATCH("/boards/:id/items/:iid", itemHandler.UpdateItem)
	r.POST("/boards/:id/subitems", itemHandler.CreateSubitem)
	r.GET("/updates", updateHandler.List)
	r.POST("/updates", updateHandler.Create)
	r.DELETE("/updates", updateHandler.Delete)
	r.GET("/organizations/:id/members", memberHandler.List)
	return f
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func errorOf(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body.Error
}

func ownBoard() *model.Board {
	return &model.Board{
		ID:             "board-1",
		Name:           "Roadmap",
		OrganizationID: testOrg,
		Columns: datatypes.NewJSONType([]board.Column{
			{ID: "col-status", Title: "Status", Type: board.TypeStatus},
			{ID: "col-text", Title: "Notes", Type: board.TypeText},
		}),
	}
}

func TestCreateBoard_DefaultColumns(t *testing.T) {
	// Arrange
	f := setupTest()
	f.boards.On("Create", mock.Anything, mock.MatchedBy(func(b *model.Board) bool {
		return b.OrganizationID == testOrg && b.CreatedBy == testUser && len(b.ColumnList()) == 7
	})).Return(nil)

	// Act
	resp := f.do(http.MethodPost, "/api/boards", api.CreateBoardRequest{Name: "Launch"})

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)
	var body api.BoardResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "Launch", body.Board.Name)
	assert.Len(t, body.Board.Columns, 7)
	f.boards.AssertExpectations(t)
}

func TestCreateBoard_MissingName(t *testing.T) {
	f := setupTest()

	resp := f.do(http.MethodPost, "/api/boards", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "name is required", errorOf(t, resp))
	f.boards.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetBoard_NotFound(t *testing.T) {
	f := setupTest()
	f.boards.On("GetByID", mock.Anything, "ghost").Return(nil, repository.ErrBoardNotFound)

	resp := f.do(http.MethodGet, "/api/boards/ghost", nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Board not found", errorOf(t, resp))
}

func TestGetBoard_OtherOrganization(t *testing.T) {
	f := setupTest()
	foreign := ownBoard()
	foreign.OrganizationID = "org-2"
	f.boards.On("GetByID", mock.Anything, "board-1").Return(foreign, nil)

	resp := f.do(http.MethodGet, "/api/boards/board-1", nil)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	f.boards.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
}

func TestUpdateBoard_RejectsUnknownColumnType(t *testing.T) {
	f := setupTest()
	f.boards.On("GetByID", mock.Anything, "board-1").Return(ownBoard(), nil)
	cols := []board.Column{{ID: "col-x", Title: "X", Type: "rating"}}

	resp := f.do(http.MethodPatch, "/api/boards/board-1", api.UpdateBoardRequest{Columns: &cols})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	f.boards.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateItem_MissingPosition(t *testing.T) {
	// Arrange
	f := setupTest()
	f.boards.On("GetByID", mock.Anything, "board-1").Return(ownBoard(), nil)
	body := map[string]any{"id": "item-1", "groupId": "g1", "name": "Ship", "columns": map[string]any{}}

	// Act
	resp := f.do(http.MethodPost, "/api/boards/board-1/items", body)

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "position is required", errorOf(t, resp))
	f.items.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateItem_FillsMissingCells(t *testing.T) {
	// Arrange
	f := setupTest()
	f.boards.On("GetByID", mock.Anything, "board-1").Return(ownBoard(), nil)
	var saved *model.Item
	f.items.On("Create", mock.Anything, mock.AnythingOfType("*model.Item")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*model.Item) }).
		Return(nil)
	pos := 2
	req := api.CreateItemRequest{
		ID: "item-1", GroupID: "g1", Name: "Ship", Position: &pos,
		Columns: board.Cells{
			"col-status": {Type: board.TypeStatus, Value: board.Text(board.StatusDone)},
			"col-gone":   {Type: board.TypeText, Value: board.Text("stale")},
		},
	}

	// Act
	resp := f.do(http.MethodPost, "/api/boards/board-1/items", req)

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)
	require.NotNil(t, saved)
	cells := saved.Columns.Data()
	assert.Len(t, cells, 2)
	assert.Equal(t, board.StatusDone, cells["col-status"].Value.Str())
	assert.Contains(t, cells, "col-text")
	assert.Equal(t, 2, saved.Position)
}

func TestCreateItem_UnknownGroup(t *testing.T) {
	f := setupTest()
	f.boards.On("GetByID", mock.Anything, "board-1").Return(ownBoard(), nil)
	f.items.On("Create", mock.Anything, mock.Anything).Return(repository.ErrGroupNotFound)
	pos := 0

	resp := f.do(http.MethodPost, "/api/boards/board-1/items", api.CreateItemRequest{
		ID: "item-1", GroupID: "g9", Name: "Ship", Position: &pos, Columns: board.Cells{},
	})

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Group not found", errorOf(t, resp))
}

func TestUpdateItem_DropsUnknownColumns(t *testing.T) {
	f := setupTest()
	f.boards.On("GetByID", mock.Anything, "board-1").Return(ownBoard(), nil)
	f.items.On("Update", mock.Anything, "board-1", "i1", mock.MatchedBy(func(req api.UpdateItemRequest) bool {
		_, stale := req.Columns["col-gone"]
		return len(req.Columns) == 1 && !stale
	})).Return(nil)

	resp := f.do(http.MethodPatch, "/api/boards/board-1/items/i1", api.UpdateItemRequest{
		Columns: board.Cells{
			"col-text": {Type: board.TypeText, Value: board.Text("hi")},
			"col-gone": {Type: board.TypeText, Value: board.Text("x")},
		},
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	f.items.AssertExpectations(t)
}

func TestUpdateItem_StoreFailure(t *testing.T) {
	f := setupTest()
	f.boards.On("GetByID", mock.Anything, "board-1").Return(ownBoard(), nil)
	f.items.On("Update", mock.Anything, "board-1", "i1", mock.Anything).Return(errors.New("connection reset"))
	name := "Renamed"

	resp := f.do(http.MethodPatch, "/api/boards/board-1/items/i1", api.UpdateItemRequest{Name: &name})

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "Failed to update item", errorOf(t, resp))
}

func TestCreateSubitem_MissingFields(t *testing.T) {
	f := setupTest()
	f.boards.On("GetByID", mock.Anything, "board-1").Return(ownBoard(), nil)

	resp := f.do(http.MethodPost, "/api/boards/board-1/subitems", map[string]any{"id": "subitem-1", "name": "x"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "itemId, columns and position are required", errorOf(t, resp))
}

func TestCreateUpdate_RecordsAuthor(t *testing.T) {
	// Arrange
	f := setupTest()
	f.boards.On("GetByID", mock.Anything, "board-1").Return(ownBoard(), nil)
	f.users.On("GetByID", mock.Anything, testUser).Return(&model.User{ID: testUser, Email: "ana@example.com", Name: "Ana"}, nil)
	f.updates.On("Create", mock.Anything, mock.MatchedBy(func(u *model.Update) bool {
		return u.ItemID != nil && *u.ItemID == "i1" && u.GroupID == nil && u.AuthorName == "Ana"
	})).Return(nil)

	// Act
	resp := f.do(http.MethodPost, "/api/updates", api.CreateUpdateRequest{
		BoardID: "board-1", ItemID: "i1", ItemType: board.EntityItem, Message: "Shipped",
	})

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)
	var body api.UpdateResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "i1", body.Update.ItemID)
	assert.Equal(t, "ana@example.com", body.Update.AuthorEmail)
	f.updates.AssertExpectations(t)
}

func TestCreateUpdate_ParentOutsideBoardIsNotFound(t *testing.T) {
	f := setupTest()
	f.boards.On("GetByID", mock.Anything, "board-1").Return(ownBoard(), nil)
	f.users.On("GetByID", mock.Anything, testUser).Return(&model.User{ID: testUser, Email: "ana@example.com"}, nil)
	f.updates.On("Create", mock.Anything, mock.Anything).Return(repository.ErrParentNotFound)

	resp := f.do(http.MethodPost, "/api/updates", api.CreateUpdateRequest{
		BoardID: "board-1", ItemID: "item-on-other-board", ItemType: board.EntityItem, Message: "hi",
	})

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Parent entity not found", errorOf(t, resp))
}

func TestCreateUpdate_InvalidItemType(t *testing.T) {
	f := setupTest()

	resp := f.do(http.MethodPost, "/api/updates", map[string]any{
		"boardId": "board-1", "itemId": "i1", "itemType": "board", "message": "x",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "itemType must be one of [group item subitem]", errorOf(t, resp))
}

func TestListUpdates_MissingQuery(t *testing.T) {
	f := setupTest()

	resp := f.do(http.MethodGet, "/api/updates?boardId=board-1", nil)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "itemId and itemType are required", errorOf(t, resp))
}

func TestDeleteUpdate_OtherAuthor(t *testing.T) {
	// Arrange
	f := setupTest()
	item := "i1"
	f.updates.On("GetByID", mock.Anything, "update-1").Return(&model.Update{
		ID: "update-1", BoardID: "board-1", ItemID: &item, ItemType: board.EntityItem,
		AuthorID: "user-2", CreatedAt: time.Now(),
	}, nil)
	f.boards.On("GetByID", mock.Anything, "board-1").Return(ownBoard(), nil)

	// Act
	resp := f.do(http.MethodDelete, "/api/updates?updateId=update-1", nil)

	// Assert
	assert.Equal(t, http.StatusForbidden, resp.Code)
	f.updates.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteUpdate_Own(t *testing.T) {
	f := setupTest()
	item := "i1"
	f.updates.On("GetByID", mock.Anything, "update-1").Return(&model.Update{
		ID: "update-1", BoardID: "board-1", ItemID: &item, ItemType: board.EntityItem, AuthorID: testUser,
	}, nil)
	f.boards.On("GetByID", mock.Anything, "board-1").Return(ownBoard(), nil)
	f.updates.On("Delete", mock.Anything, "update-1").Return(nil)

	resp := f.do(http.MethodDelete, "/api/updates?updateId=update-1", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"success":true}`, resp.Body.String())
}

func TestListMembers(t *testing.T) {
	f := setupTest()
	f.orgs.On("ListMembers", mock.Anything, testOrg).Return([]model.Member{{
		ID: "m1", UserID: testUser, Role: model.RoleOwner,
		User: model.User{ID: testUser, Email: "ana@example.com", Name: "Ana"},
	}}, nil)

	resp := f.do(http.MethodGet, "/api/organizations/"+testOrg+"/members", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	var members []api.Member
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &members))
	require.Len(t, members, 1)
	assert.Equal(t, "Ana", members[0].UserName)
}

func TestListMembers_OtherOrganization(t *testing.T) {
	f := setupTest()

	resp := f.do(http.MethodGet, "/api/organizations/org-2/members", nil)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	f.orgs.AssertNotCalled(t, "ListMembers", mock.Anything, mock.Anything)
}
