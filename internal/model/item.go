package model

import (
	"time"

	"orderlyflow/internal/board"

	"gorm.io/datatypes"
)

type Item struct {
	ID        string                         `gorm:"primaryKey"`
	BoardID   string                         `gorm:"not null;index"`
	GroupID   string                         `gorm:"not null;index"`
	Name      string                         `gorm:"not null"`
	Position  int                            `gorm:"not null"`
	Columns   datatypes.JSONType[board.Cells] `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Group Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
}

func (Item) TableName() string {
	return "board_items"
}

func (it *Item) ToDomain() board.Item {
	return board.Item{
		ID:       it.ID,
		BoardID:  it.BoardID,
		GroupID:  it.GroupID,
		Name:     it.Name,
		Position: it.Position,
		Columns:  cellsOrEmpty(it.Columns.Data()),
		Subitems: []board.Subitem{},
	}
}

type Subitem struct {
	ID        string                         `gorm:"primaryKey"`
	BoardID   string                         `gorm:"not null;index"`
	ItemID    string                         `gorm:"not null;index"`
	Name      string                         `gorm:"not null"`
	Position  int                            `gorm:"not null"`
	Columns   datatypes.JSONType[board.Cells] `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Item Item `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

func (Subitem) TableName() string {
	return "board_subitems"
}

func (s *Subitem) ToDomain() board.Subitem {
	return board.Subitem{
		ID:       s.ID,
		BoardID:  s.BoardID,
		ItemID:   s.ItemID,
		Name:     s.Name,
		Position: s.Position,
		Columns:  cellsOrEmpty(s.Columns.Data()),
	}
}

func cellsOrEmpty(c board.Cells) board.Cells {
	if c == nil {
		return board.Cells{}
	}
	return c
}
