package model

import (
	"time"

	"orderlyflow/internal/board"

	"gorm.io/datatypes"
)

// Board stores the column schema inline; groups, items, subitems and people
// live in their own tables and cascade with the board.
type Board struct {
	ID             string                                `gorm:"primaryKey"`
	Name           string                                `gorm:"not null"`
	OrganizationID string                                `gorm:"not null;index"`
	Columns        datatypes.JSONType[[]board.Column]    `gorm:"type:jsonb;not null"`
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Organization Organization `gorm:"foreignKey:OrganizationID"`
}

func (b *Board) ColumnList() []board.Column {
	cols := b.Columns.Data()
	if cols == nil {
		return []board.Column{}
	}
	return cols
}

// ToDomain converts the row to an aggregate without children.
func (b *Board) ToDomain() board.Board {
	return board.Board{
		ID:             b.ID,
		Name:           b.Name,
		OrganizationID: b.OrganizationID,
		Columns:        b.ColumnList(),
		Groups:         []board.Group{},
	}
}
