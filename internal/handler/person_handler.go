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

type PersonHandler struct {
	boardScope
	personRepo repository.PersonRepositoryInterface
}

func NewPersonHandler(personRepo repository.PersonRepositoryInterface, boards BoardLookup, log *logger.Logger) *PersonHandler {
	return &PersonHandler{boardScope: newBoardScope(boards, log), personRepo: personRepo}
}

func (h *PersonHandler) List(c *gin.Context) {
	if _, ok := h.authorize(c, c.Param("id")); !ok {
		return
	}
	rows, err := h.personRepo.ListByBoard(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to retrieve people")
		return
	}
	people := make([]board.Person, len(rows))
	for i := range rows {
		people[i] = rows[i].ToDomain()
	}
	c.JSON(http.StatusOK, people)
}

// Create adds a person. An empty color takes the next palette slot.
func (h *PersonHandler) Create(c *gin.Context) {
	b, ok := h.authorize(c, c.Param("id"))
	if !ok {
		return
	}
	var req api.CreatePersonRequest
	if !bindJSON(c, &req) {
		return
	}
	color := req.Color
	if color == "" {
		existing, err := h.personRepo.ListByBoard(c.Request.Context(), b.ID)
		if err != nil {
			h.fail(c, err, "Failed to create person")
			return
		}
		color = board.PersonColor(len(existing))
	}
	row := &model.Person{ID: req.ID, BoardID: b.ID, Name: req.Name, Email: req.Email, Color: color}
	if err := h.personRepo.Create(c.Request.Context(), row); err != nil {
		h.fail(c, err, "Failed to create person")
		return
	}
	c.JSON(http.StatusCreated, row.ToDomain())
}

func (h *PersonHandler) Update(c *gin.Context) {
	if _, ok := h.authorize(c, c.Param("id")); !ok {
		return
	}
	var req api.UpdatePersonRequest
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.personRepo.Update(c.Request.Context(), c.Param("id"), c.Param("pid"), req)
	if err != nil {
		h.fail(c, err, "Failed to update person")
		return
	}
	c.JSON(http.StatusOK, row.ToDomain())
}

func (h *PersonHandler) Delete(c *gin.Context) {
	if _, ok := h.authorize(c, c.Param("id")); !ok {
		return
	}
	if err := h.personRepo.Delete(c.Request.Context(), c.Param("id"), c.Param("pid")); err != nil {
		h.fail(c, err, "Failed to delete person")
		return
	}
	success(c)
}
