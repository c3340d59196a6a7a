package model

import (
	"time"

	"orderlyflow/internal/board"
)

type Person struct {
	ID        string `gorm:"primaryKey"`
	BoardID   string `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	Email     string
	Color     string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Board Board `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
}

func (Person) TableName() string {
	return "people"
}

func (p *Person) ToDomain() board.Person {
	return board.Person{ID: p.ID, BoardID: p.BoardID, Name: p.Name, Email: p.Email, Color: p.Color}
}
