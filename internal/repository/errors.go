package repository

import "errors"

// Common repository errors
var (
	// ErrBoardNotFound is returned when a board is not found
	ErrBoardNotFound = errors.New("board not found")

	ErrGroupNotFound   = errors.New("group not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrSubitemNotFound = errors.New("subitem not found")
	ErrPersonNotFound  = errors.New("person not found")
	ErrUpdateNotFound  = errors.New("update not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrParentNotFound is returned when an update names an entity that does not exist
	ErrParentNotFound = errors.New("parent entity not found")

	// ErrDuplicateID is returned when a client-generated id is already taken
	ErrDuplicateID = errors.New("id already exists")
)
