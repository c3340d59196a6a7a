package handler

import (
	"net/http"

	"orderlyflow/internal/api"
	"orderlyflow/internal/board"
	"orderlyflow/internal/logger"
	"orderlyflow/internal/model"
	"orderlyflow/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// ItemHandler serves items and subitems. Cells for columns the board does
// not have are dropped; create fills the missing ones with blank defaults.
type ItemHandler struct {
	boardScope
	itemRepo    repository.ItemRepositoryInterface
	subitemRepo repository.SubitemRepositoryInterface
}

func NewItemHandler(
	itemRepo repository.ItemRepositoryInterface,
	subitemRepo repository.SubitemRepositoryInterface,
	boards BoardLookup,
	log *logger.Logger,
) *ItemHandler {
	return &ItemHandler{
		boardScope:  newBoardScope(boards, log),
		itemRepo:    itemRepo,
		subitemRepo: subitemRepo,
	}
}

func (h *ItemHandler) ListItems(c *gin.Context) {
	if _, ok := h.authorize(c, c.Param("id")); !ok {
		return
	}
	rows, err := h.itemRepo.ListByBoard(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to retrieve items")
		return
	}
	items := make([]board.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	c.JSON(http.StatusOK, api.ItemsResponse{Items: items})
}

func (h *ItemHandler) CreateItem(c *gin.Context) {
	b, ok := h.authorize(c, c.Param("id"))
	if !ok {
		return
	}
	var req api.CreateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	cells, _ := board.ReconcileCells(b.ColumnList(), req.Columns)
	row := &model.Item{
		ID:       req.ID,
		BoardID:  b.ID,
		GroupID:  req.GroupID,
		Name:     req.Name,
		Position: *req.Position,
		Columns:  datatypes.NewJSONType(cells),
	}
	if err := h.itemRepo.Create(c.Request.Context(), row); err != nil {
		h.fail(c, err, "Failed to create item")
		return
	}
	c.JSON(http.StatusCreated, api.ItemResponse{Item: row.ToDomain()})
}

func (h *ItemHandler) UpdateItem(c *gin.Context) {
	b, ok := h.authorize(c, c.Param("id"))
	if !ok {
		return
	}
	var req api.UpdateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Columns != nil {
		req.Columns = knownCells(b.ColumnList(), req.Columns)
	}
	if err := h.itemRepo.Update(c.Request.Context(), b.ID, c.Param("iid"), req); err != nil {
		h.fail(c, err, "Failed to update item")
		return
	}
	success(c)
}

func (h *ItemHandler) DeleteItem(c *gin.Context) {
	if _, ok := h.authorize(c, c.Param("id")); !ok {
		return
	}
	if err := h.itemRepo.Delete(c.Request.Context(), c.Param("id"), c.Param("iid")); err != nil {
		h.fail(c, err, "Failed to delete item")
		return
	}
	success(c)
}

func (h *ItemHandler) ListSubitems(c *gin.Context) {
	if _, ok := h.authorize(c, c.Param("id")); !ok {
		return
	}
	rows, err := h.subitemRepo.ListByBoard(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to retrieve subitems")
		return
	}
	subitems := make([]board.Subitem, len(rows))
	for i := range rows {
		subitems[i] = rows[i].ToDomain()
	}
	c.JSON(http.StatusOK, api.SubitemsResponse{Subitems: subitems})
}

func (h *ItemHandler) CreateSubitem(c *gin.Context) {
	b, ok := h.authorize(c, c.Param("id"))
	if !ok {
		return
	}
	var req api.CreateSubitemRequest
	if !bindJSON(c, &req) {
		return
	}
	cells, _ := board.ReconcileCells(b.ColumnList(), req.Columns)
	row := &model.Subitem{
		ID:       req.ID,
		BoardID:  b.ID,
		ItemID:   req.ItemID,
		Name:     req.Name,
		Position: *req.Position,
		Columns:  datatypes.NewJSONType(cells),
	}
	if err := h.subitemRepo.Create(c.Request.Context(), row); err != nil {
		h.fail(c, err, "Failed to create subitem")
		return
	}
	c.JSON(http.StatusCreated, api.SubitemResponse{Subitem: row.ToDomain()})
}

func (h *ItemHandler) UpdateSubitem(c *gin.Context) {
	b, ok := h.authorize(c, c.Param("id"))
	if !ok {
		return
	}
	var req api.UpdateSubitemRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Columns != nil {
		req.Columns = knownCells(b.ColumnList(), req.Columns)
	}
	if err := h.subitemRepo.Update(c.Request.Context(), b.ID, c.Param("sid"), req); err != nil {
		h.fail(c, err, "Failed to update subitem")
		return
	}
	success(c)
}

func (h *ItemHandler) DeleteSubitem(c *gin.Context) {
	if _, ok := h.authorize(c, c.Param("id")); !ok {
		return
	}
	if err := h.subitemRepo.Delete(c.Request.Context(), c.Param("id"), c.Param("sid")); err != nil {
		h.fail(c, err, "Failed to delete subitem")
		return
	}
	success(c)
}
