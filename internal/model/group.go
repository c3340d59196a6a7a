package model

import (
	"time"

	"orderlyflow/internal/board"
)

type Group struct {
	ID        string `gorm:"primaryKey"`
	BoardID   string `gorm:"not null;index"`
	Title     string `gorm:"not null"`
	Position  int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Board Board `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
}

func (Group) TableName() string {
	return "board_groups"
}

func (g *Group) ToDomain() board.Group {
	return board.Group{
		ID:       g.ID,
		BoardID:  g.BoardID,
		Title:    g.Title,
		Position: g.Position,
		Items:    []board.Item{},
	}
}
