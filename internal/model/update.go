package model

import (
	"time"

	"orderlyflow/internal/api"
	"orderlyflow/internal/board"
)

// Update is a comment on a group, item or subitem. Exactly one of the three
// parent columns is set, matching ItemType.
type Update struct {
	ID          string           `gorm:"primaryKey"`
	BoardID     string           `gorm:"not null;index"`
	GroupID     *string          `gorm:"index"`
	ItemID      *string          `gorm:"index"`
	SubitemID   *string          `gorm:"index"`
	ItemType    board.EntityType `gorm:"not null;check:item_type IN ('group', 'item', 'subitem')"`
	Message     string           `gorm:"not null"`
	AuthorID    string           `gorm:"not null"`
	AuthorName  string
	AuthorEmail string
	CreatedAt   time.Time
}

// ParentColumn names the column holding the parent id for t.
func ParentColumn(t board.EntityType) (string, bool) {
	switch t {
	case board.EntityGroup:
		return "group_id", true
	case board.EntityItem:
		return "item_id", true
	case board.EntitySubitem:
		return "subitem_id", true
	}
	return "", false
}

// SetParent points u at entityID of type t and clears the other parents.
func (u *Update) SetParent(t board.EntityType, entityID string) {
	u.ItemType = t
	u.GroupID, u.ItemID, u.SubitemID = nil, nil, nil
	id := entityID
	switch t {
	case board.EntityGroup:
		u.GroupID = &id
	case board.EntityItem:
		u.ItemID = &id
	case board.EntitySubitem:
		u.SubitemID = &id
	}
}

func (u *Update) ParentID() string {
	for _, p := range []*string{u.GroupID, u.ItemID, u.SubitemID} {
		if p != nil {
			return *p
		}
	}
	return ""
}

func (u *Update) ToAPI() api.Update {
	return api.Update{
		ID:          u.ID,
		BoardID:     u.BoardID,
		ItemID:      u.ParentID(),
		ItemType:    u.ItemType,
		Message:     u.Message,
		AuthorID:    u.AuthorID,
		AuthorName:  u.AuthorName,
		AuthorEmail: u.AuthorEmail,
		CreatedAt:   u.CreatedAt,
	}
}
