package handler

import (
	"net/http"

	"orderlyflow/internal/api"
	"orderlyflow/internal/board"
	"orderlyflow/internal/logger"
	"orderlyflow/internal/model"
	"orderlyflow/internal/repository"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	boardScope
	groupRepo repository.GroupRepositoryInterface
}

func NewGroupHandler(groupRepo repository.GroupRepositoryInterface, boards BoardLookup, log *logger.Logger) *GroupHandler {
	return &GroupHandler{boardScope: newBoardScope(boards, log), groupRepo: groupRepo}
}

func (h *GroupHandler) List(c *gin.Context) {
	if _, ok := h.authorize(c, c.Param("id")); !ok {
		return
	}
	rows, err := h.groupRepo.ListByBoard(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to retrieve groups")
		return
	}
	groups := make([]board.Group, len(rows))
	for i := range rows {
		groups[i] = rows[i].ToDomain()
	}
	c.JSON(http.StatusOK, api.GroupsResponse{Groups: groups})
}

func (h *GroupHandler) Create(c *gin.Context) {
	b, ok := h.authorize(c, c.Param("id"))
	if !ok {
		return
	}
	var req api.CreateGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	row := &model.Group{ID: req.ID, BoardID: b.ID, Title: req.Title, Position: *req.Position}
	if err := h.groupRepo.Create(c.Request.Context(), row); err != nil {
		h.fail(c, err, "Failed to create group")
		return
	}
	c.JSON(http.StatusCreated, api.GroupResponse{Group: row.ToDomain()})
}

func (h *GroupHandler) Update(c *gin.Context) {
	if _, ok := h.authorize(c, c.Param("id")); !ok {
		return
	}
	var req api.UpdateGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.groupRepo.Update(c.Request.Context(), c.Param("id"), c.Param("gid"), req); err != nil {
		h.fail(c, err, "Failed to update group")
		return
	}
	success(c)
}

func (h *GroupHandler) Delete(c *gin.Context) {
	if _, ok := h.authorize(c, c.Param("id")); !ok {
		return
	}
	if err := h.groupRepo.Delete(c.Request.Context(), c.Param("id"), c.Param("gid")); err != nil {
		h.fail(c, err, "Failed to delete group")
		return
	}
	success(c)
}
