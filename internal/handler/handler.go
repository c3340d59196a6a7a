package handler

import (
	"context"
	"errors"
	"net/http"

	"orderlyflow/internal/api"
	"orderlyflow/internal/board"
	"orderlyflow/internal/logger"
	"orderlyflow/internal/middleware"
	"orderlyflow/internal/model"
	"orderlyflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// UseJSONNames makes gin's binding errors name fields by their json tag.
func UseJSONNames() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		api.UseJSONNames(v)
	}
}

// BoardLookup is the part of the board repository every board-scoped
// handler needs to authorize a request.
type BoardLookup interface {
	GetByID(ctx context.Context, id string) (*model.Board, error)
}

// boardScope authorizes requests against the board's organization.
type boardScope struct {
	boards BoardLookup
	log    *logger.Logger
}

func newBoardScope(boards BoardLookup, log *logger.Logger) boardScope {
	return boardScope{boards: boards, log: logger.Or(log).WithComponent("handler")}
}

// authorize loads boardID and checks it belongs to the caller's
// organization. It writes the error response itself and returns false when
// the request must stop.
func (s boardScope) authorize(c *gin.Context, boardID string) (*model.Board, bool) {
	b, err := s.boards.GetByID(c.Request.Context(), boardID)
	if err != nil {
		s.fail(c, err, "Failed to load board")
		return nil, false
	}
	if b.OrganizationID != middleware.OrganizationID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return nil, false
	}
	return b, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": api.ValidationMessage(err)})
		return false
	}
	return true
}

var notFound = []error{
	repository.ErrBoardNotFound,
	repository.ErrGroupNotFound,
	repository.ErrItemNotFound,
	repository.ErrSubitemNotFound,
	repository.ErrPersonNotFound,
	repository.ErrUpdateNotFound,
	repository.ErrParentNotFound,
}

// fail maps repository errors to a status. Anything unrecognised is logged
// and answered with 500 and msg.
func (s boardScope) fail(c *gin.Context, err error, msg string) {
	for _, target := range notFound {
		if errors.Is(err, target) {
			c.JSON(http.StatusNotFound, gin.H{"error": capitalize(target.Error())})
			return
		}
	}
	if errors.Is(err, repository.ErrDuplicateID) {
		c.JSON(http.StatusConflict, gin.H{"error": "An entity with this id already exists"})
		return
	}
	s.log.WithError(err).Errorw(msg, "path", c.FullPath(), "user_id", middleware.UserID(c))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// knownCells keeps only cells whose column exists on the board.
func knownCells(cols []board.Column, cells board.Cells) board.Cells {
	out := make(board.Cells, len(cells))
	for _, col := range cols {
		if c, ok := cells[col.ID]; ok {
			out[col.ID] = c
		}
	}
	return out
}

func success(c *gin.Context) {
	c.JSON(http.StatusOK, api.SuccessResponse{Success: true})
}
