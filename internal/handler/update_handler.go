package handler

import (
	"context"
	"errors"
	"net/http"

	"orderlyflow/internal/api"
	"orderlyflow/internal/board"
	"orderlyflow/internal/cache"
	"orderlyflow/internal/logger"
	"orderlyflow/internal/middleware"
	"orderlyflow/internal/model"
	"orderlyflow/internal/repository"

	"github.com/gin-gonic/gin"
)

// UserLookup resolves the author of a new update.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type UpdateHandler struct {
	boardScope
	updateRepo repository.UpdateRepositoryInterface
	users      UserLookup
	counts     cache.Counts
}

func NewUpdateHandler(
	updateRepo repository.UpdateRepositoryInterface,
	boards BoardLookup,
	users UserLookup,
	counts cache.Counts,
	log *logger.Logger,
) *UpdateHandler {
	if counts == nil {
		counts = cache.Nop{}
	}
	return &UpdateHandler{
		boardScope: newBoardScope(boards, log),
		updateRepo: updateRepo,
		users:      users,
		counts:     counts,
	}
}

type threadQuery struct {
	BoardID  string           `form:"boardId" json:"boardId" binding:"required"`
	ItemID   string           `form:"itemId" json:"itemId" binding:"required"`
	ItemType board.EntityType `form:"itemType" json:"itemType" binding:"required,oneof=group item subitem"`
}

func (h *UpdateHandler) bindThread(c *gin.Context) (threadQuery, bool) {
	var q threadQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": api.ValidationMessage(err)})
		return q, false
	}
	_, ok := h.authorize(c, q.BoardID)
	return q, ok
}

func (h *UpdateHandler) List(c *gin.Context) {
	q, ok := h.bindThread(c)
	if !ok {
		return
	}
	rows, err := h.updateRepo.List(c.Request.Context(), q.BoardID, q.ItemID, q.ItemType)
	if err != nil {
		h.fail(c, err, "Failed to retrieve updates")
		return
	}
	updates := make([]api.Update, len(rows))
	for i := range rows {
		updates[i] = rows[i].ToAPI()
	}
	c.JSON(http.StatusOK, api.UpdatesResponse{Updates: updates})
}

// Count answers from the cache when it can and fills it otherwise.
func (h *UpdateHandler) Count(c *gin.Context) {
	q, ok := h.bindThread(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	n, hit, tok := h.counts.Get(ctx, q.BoardID, q.ItemID, q.ItemType)
	if hit {
		c.JSON(http.StatusOK, api.UpdateCountResponse{Count: n})
		return
	}
	n, err := h.updateRepo.Count(ctx, q.BoardID, q.ItemID, q.ItemType)
	if err != nil {
		h.fail(c, err, "Failed to count updates")
		return
	}
	h.counts.Set(ctx, q.BoardID, q.ItemID, q.ItemType, n, tok)
	c.JSON(http.StatusOK, api.UpdateCountResponse{Count: n})
}

func (h *UpdateHandler) Create(c *gin.Context) {
	var req api.CreateUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	b, ok := h.authorize(c, req.BoardID)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	row := &model.Update{
		ID:       board.NewID(board.KindUpdate),
		BoardID:  b.ID,
		Message:  req.Message,
		AuthorID: userID,
	}
	row.SetParent(req.ItemType, req.ItemID)
	user, err := h.users.GetByID(ctx, userID)
	switch {
	case err == nil:
		row.AuthorName = user.DisplayName()
		row.AuthorEmail = user.Email
	case !errors.Is(err, repository.ErrUserNotFound):
		h.fail(c, err, "Failed to create update")
		return
	}

	if err := h.updateRepo.Create(ctx, row); err != nil {
		h.fail(c, err, "Failed to create update")
		return
	}
	h.counts.Invalidate(ctx, b.ID, req.ItemID, req.ItemType)
	c.JSON(http.StatusCreated, api.UpdateResponse{Update: row.ToAPI()})
}

// Delete removes an update. Only its author may delete it.
func (h *UpdateHandler) Delete(c *gin.Context) {
	id := c.Query("updateId")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "updateId is required"})
		return
	}
	ctx := c.Request.Context()
	row, err := h.updateRepo.GetByID(ctx, id)
	if err != nil {
		h.fail(c, err, "Failed to delete update")
		return
	}
	if _, ok := h.authorize(c, row.BoardID); !ok {
		return
	}
	if row.AuthorID != middleware.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own updates"})
		return
	}
	if err := h.updateRepo.Delete(ctx, id); err != nil {
		h.fail(c, err, "Failed to delete update")
		return
	}
	h.counts.Invalidate(ctx, row.BoardID, row.ParentID(), row.ItemType)
	success(c)
}
