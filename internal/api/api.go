// Package api defines the JSON bodies exchanged with the entity store. The
// server binds requests with gin and the client validates the same structs
// before sending, so both ends share one set of binding rules.
package api

import (
	"time"

	"orderlyflow/internal/board"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type CreateBoardRequest struct {
	Name    string         `json:"name" binding:"required"`
	Columns []board.Column `json:"columns"`
}

// UpdateBoardRequest leaves a field unchanged when it is nil.
type UpdateBoardRequest struct {
	Name    *string         `json:"name" binding:"omitempty,min=1"`
	Columns *[]board.Column `json:"columns"`
}

type BoardResponse struct {
	Board board.Board `json:"board"`
}

type BoardsResponse struct {
	Boards []board.Board `json:"boards"`
}

type CreateGroupRequest struct {
	ID       string `json:"id" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Position *int   `json:"position" binding:"required,min=0"`
}

type UpdateGroupRequest struct {
	Title    *string `json:"title"`
	Position *int    `json:"position" binding:"omitempty,min=0"`
}

type GroupResponse struct {
	Group board.Group `json:"group"`
}

type GroupsResponse struct {
	Groups []board.Group `json:"groups"`
}

type CreateItemRequest struct {
	ID       string      `json:"id" binding:"required"`
	GroupID  string      `json:"groupId" binding:"required"`
	Name     string      `json:"name" binding:"required"`
	Columns  board.Cells `json:"columns" binding:"required"`
	Position *int        `json:"position" binding:"required,min=0"`
}

type UpdateItemRequest struct {
	Name     *string     `json:"name"`
	Columns  board.Cells `json:"columns"`
	Position *int        `json:"position" binding:"omitempty,min=0"`
	GroupID  *string     `json:"groupId" binding:"omitempty,min=1"`
}

type ItemResponse struct {
	Item board.Item `json:"item"`
}

type ItemsResponse struct {
	Items []board.Item `json:"items"`
}

type CreateSubitemRequest struct {
	ID       string      `json:"id" binding:"required"`
	ItemID   string      `json:"itemId" binding:"required"`
	Name     string      `json:"name" binding:"required"`
	Columns  board.Cells `json:"columns" binding:"required"`
	Position *int        `json:"position" binding:"required,min=0"`
}

type UpdateSubitemRequest struct {
	Name     *string     `json:"name"`
	Columns  board.Cells `json:"columns"`
	Position *int        `json:"position" binding:"omitempty,min=0"`
}

type SubitemResponse struct {
	Subitem board.Subitem `json:"subitem"`
}

type SubitemsResponse struct {
	Subitems []board.Subitem `json:"subitems"`
}

type CreatePersonRequest struct {
	ID    string `json:"id" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
	Color string `json:"color"`
}

type UpdatePersonRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1"`
	Email *string `json:"email" binding:"omitempty,email"`
	Color *string `json:"color"`
}

type CreateUpdateRequest struct {
	BoardID  string           `json:"boardId" binding:"required"`
	ItemID   string           `json:"itemId" binding:"required"`
	ItemType board.EntityType `json:"itemType" binding:"required,oneof=group item subitem"`
	Message  string           `json:"message" binding:"required"`
}

// Update is one comment in a thread. ItemID carries the id of whichever
// entity ItemType names.
type Update struct {
	ID          string           `json:"id"`
	BoardID     string           `json:"boardId"`
	ItemID      string           `json:"itemId"`
	ItemType    board.EntityType `json:"itemType"`
	Message     string           `json:"message"`
	AuthorID    string           `json:"authorId"`
	AuthorName  string           `json:"authorName"`
	AuthorEmail string           `json:"authorEmail"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type UpdateResponse struct {
	Update Update `json:"update"`
}

type UpdatesResponse struct {
	Updates []Update `json:"updates"`
}

type UpdateCountResponse struct {
	Count int64 `json:"count"`
}

type Member struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	UserImage string `json:"userImage"`
}
