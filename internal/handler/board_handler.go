package handler

import (
	"net/http"

	"orderlyflow/internal/api"
	"orderlyflow/internal/board"
	"orderlyflow/internal/logger"
	"orderlyflow/internal/middleware"
	"orderlyflow/internal/model"
	"orderlyflow/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type BoardHandler struct {
	boardScope
	boardRepo repository.BoardRepositoryInterface
}

func NewBoardHandler(boardRepo repository.BoardRepositoryInterface, log *logger.Logger) *BoardHandler {
	return &BoardHandler{
		boardScope: newBoardScope(boardRepo, log),
		boardRepo:  boardRepo,
	}
}

// List godoc
// @Summary  List boards of the caller's organization
// @Tags     Boards
// @Security BearerAuth
// @Success  200 {object} api.BoardsResponse
// @Router   /boards [get]
func (h *BoardHandler) List(c *gin.Context) {
	rows, err := h.boardRepo.ListByOrganization(c.Request.Context(), middleware.OrganizationID(c))
	if err != nil {
		h.fail(c, err, "Failed to retrieve boards")
		return
	}
	boards := make([]board.Board, len(rows))
	for i := range rows {
		boards[i] = rows[i].ToDomain()
	}
	c.JSON(http.StatusOK, api.BoardsResponse{Boards: boards})
}

// Get godoc
// @Summary  Get a board with its groups, items, subitems and people
// @Tags     Boards
// @Security BearerAuth
// @Param    id path string true "Board ID"
// @Success  200 {object} api.BoardResponse
// @Router   /boards/{id} [get]
func (h *BoardHandler) Get(c *gin.Context) {
	if _, ok := h.authorize(c, c.Param("id")); !ok {
		return
	}
	b, err := h.boardRepo.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to load board")
		return
	}
	c.JSON(http.StatusOK, api.BoardResponse{Board: *b})
}

// Create godoc
// @Summary  Create a board; omitted columns get the default set
// @Tags     Boards
// @Security BearerAuth
// @Param    board body api.CreateBoardRequest true "Board"
// @Success  201 {object} api.BoardResponse
// @Router   /boards [post]
func (h *BoardHandler) Create(c *gin.Context) {
	var req api.CreateBoardRequest
	if !bindJSON(c, &req) {
		return
	}
	cols := req.Columns
	if cols == nil {
		cols = board.NewDefaultColumns()
	}
	for _, col := range cols {
		if !col.Type.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown column type: " + string(col.Type)})
			return
		}
	}

	row := &model.Board{
		ID:             board.NewID(board.KindBoard),
		Name:           req.Name,
		OrganizationID: middleware.OrganizationID(c),
		Columns:        datatypes.NewJSONType(cols),
		CreatedBy:      middleware.UserID(c),
	}
	if err := h.boardRepo.Create(c.Request.Context(), row); err != nil {
		h.fail(c, err, "Failed to create board")
		return
	}
	c.JSON(http.StatusCreated, api.BoardResponse{Board: row.ToDomain()})
}

// Update godoc
// @Summary  Rename a board or replace its columns
// @Tags     Boards
// @Security BearerAuth
// @Param    id    path string                 true "Board ID"
// @Param    board body api.UpdateBoardRequest true "Fields to change"
// @Success  200 {object} api.BoardResponse
// @Router   /boards/{id} [patch]
func (h *BoardHandler) Update(c *gin.Context) {
	if _, ok := h.authorize(c, c.Param("id")); !ok {
		return
	}
	var req api.UpdateBoardRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Columns != nil {
		for _, col := range *req.Columns {
			if col.ID == "" || !col.Type.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Columns need an id and a known type"})
				return
			}
		}
	}
	row, err := h.boardRepo.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err, "Failed to update board")
		return
	}
	c.JSON(http.StatusOK, api.BoardResponse{Board: row.ToDomain()})
}

// Delete godoc
// @Summary  Delete a board and everything on it
// @Tags     Boards
// @Security BearerAuth
// @Param    id path string true "Board ID"
// @Success  200 {object} api.SuccessResponse
// @Router   /boards/{id} [delete]
func (h *BoardHandler) Delete(c *gin.Context) {
	if _, ok := h.authorize(c, c.Param("id")); !ok {
		return
	}
	if err := h.boardRepo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete board")
		return
	}
	success(c)
}
