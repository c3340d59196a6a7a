package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"orderlyflow/internal/api"
	"orderlyflow/internal/apperr"
	"orderlyflow/internal/board"
	"orderlyflow/internal/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T, h http.HandlerFunc) *client.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return client.New(srv.URL+"/api", "test-token", client.WithRateLimit(0, 0))
}

func TestCreateItem_SendsBearerTokenAndBody(t *testing.T) {
	// Arrange
	var got api.CreateItemRequest
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/boards/board-1/items", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"item":{}}`))
	})
	pos := 3
	req := api.CreateItemRequest{
		ID: "item-1", GroupID: "g1", Name: "Ship", Position: &pos,
		Columns: board.Cells{"col-status": {Type: board.TypeStatus, Value: board.Text(board.StatusDone)}},
	}

	// Act
	err := c.CreateItem(context.Background(), "board-1", req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "item-1", got.ID)
	require.NotNil(t, got.Position)
	assert.Equal(t, 3, *got.Position)
	assert.Equal(t, board.StatusDone, got.Columns["col-status"].Value.Str())
}

func TestErrorStatuses_MapToCodes(t *testing.T) {
	tests := []struct {
		status int
		body   string
		code   apperr.Code
		msg    string
	}{
		{http.StatusBadRequest, `{"error":"position is required"}`, apperr.CodeValidation, "position is required"},
		{http.StatusUnauthorized, `{"error":"Unauthorized"}`, apperr.CodeUnauthorized, "Unauthorized"},
		{http.StatusForbidden, `{"error":"Access denied"}`, apperr.CodeForbidden, "Access denied"},
		{http.StatusNotFound, ``, apperr.CodeNotFound, "Not Found"},
		{http.StatusInternalServerError, `{"error":"Failed to update item"}`, apperr.CodeInternal, "Failed to update item"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.UpdateItem(context.Background(), "board-1", "i1", api.UpdateItemRequest{})

			require.Error(t, err)
			assert.Equal(t, tt.code, apperr.CodeOf(err))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestTransportFailure_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := client.New(url, "")

	err := c.DeleteGroup(context.Background(), "board-1", "g1")

	assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(err))
}

func TestDeadline_IsTimeout(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.DeleteItem(ctx, "board-1", "i1")

	assert.Equal(t, apperr.CodeTimeout, apperr.CodeOf(err))
}

func TestGetBoard_DecodesCells(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/boards/board-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"board":{"id":"board-1","name":"Roadmap","organizationId":"org-1",
			"columns":[{"id":"col-p","title":"Owner","type":"person"}],
			"groups":[{"id":"g1","boardId":"board-1","title":"Sprint","position":0,"items":[
				{"id":"i1","boardId":"board-1","groupId":"g1","name":"Design","position":0,
				 "columns":{"col-p":{"type":"person","value":[{"id":"p1","name":"Ana","color":"bg-blue-500"}]}},
				 "subitems":[]}]}]}}`))
	})

	b, err := c.GetBoard(context.Background(), "board-1")

	require.NoError(t, err)
	it, ok := b.Item("i1")
	require.True(t, ok)
	people := it.Columns["col-p"].Value.PeopleList()
	require.Len(t, people, 1)
	assert.Equal(t, "Ana", people[0].Name)
}

func TestUpdates_QueryParameters(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/updates/count":
			assert.Equal(t, "subitem", q.Get("itemType"))
			_, _ = w.Write([]byte(`{"count":4}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/updates":
			assert.Equal(t, "board-1", q.Get("boardId"))
			assert.Equal(t, "s1", q.Get("itemId"))
			_, _ = w.Write([]byte(`{"updates":[{"id":"u1","message":"hi"}]}`))
		case r.Method == http.MethodDelete:
			assert.Equal(t, "u1", q.Get("updateId"))
			_, _ = w.Write([]byte(`{"success":true}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()

	n, err := c.CountUpdates(ctx, "board-1", "s1", board.EntitySubitem)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	list, err := c.ListUpdates(ctx, "board-1", "s1", board.EntitySubitem)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hi", list[0].Message)

	require.NoError(t, c.DeleteUpdate(ctx, "u1"))
}

func TestListMembers_DecodesArray(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/organizations/org-1/members", r.URL.Path)
		_, _ = w.Write([]byte(`[{"userId":"u1","role":"owner","userName":"Ana","userEmail":"ana@example.com"}]`))
	})

	members, err := c.ListMembers(context.Background(), "org-1")

	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Ana", members[0].UserName)
}
