package repository

import (
	"context"
	"errors"
	"maps"
	"time"

	"orderlyflow/internal/api"
	"orderlyflow/internal/board"
	"orderlyflow/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ItemRepositoryInterface interface {
	ListByBoard(ctx context.Context, boardID string) ([]model.Item, error)
	Create(ctx context.Context, it *model.Item) error
	Update(ctx context.Context, boardID, itemID string, req api.UpdateItemRequest) error
	Delete(ctx context.Context, boardID, itemID string) error
}

var _ ItemRepositoryInterface = (*ItemRepository)(nil)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) ListByBoard(ctx context.Context, boardID string) ([]model.Item, error) {
	var items []model.Item
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("position, created_at").
		Find(&items).Error
	return items, err
}

func groupExists(tx *gorm.DB, boardID, groupID string) error {
	var n int64
	if err := tx.Model(&model.Group{}).Where("id = ? AND board_id = ?", groupID, boardID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// Create inserts it after checking its group belongs to the same board.
func (r *ItemRepository) Create(ctx context.Context, it *model.Item) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := groupExists(tx, it.BoardID, it.GroupID); err != nil {
			return err
		}
		err := tx.Create(it).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateID
		}
		return err
	})
}

// mergeCells overlays patch onto stored cells key by key.
func mergeCells(stored, patch board.Cells) board.Cells {
	out := make(board.Cells, len(stored)+len(patch))
	maps.Copy(out, stored)
	maps.Copy(out, patch)
	return out
}

// Update applies the fields present in req. Columns are merged into the
// stored cells, so a request may carry only the cells it changes.
func (r *ItemRepository) Update(ctx context.Context, boardID, itemID string, req api.UpdateItemRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it model.Item
		if err := tx.Where("id = ? AND board_id = ?", itemID, boardID).First(&it).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		updates := map[string]any{"updated_at": time.Now()}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Position != nil {
			updates["position"] = *req.Position
		}
		if req.GroupID != nil && *req.GroupID != it.GroupID {
			if err := groupExists(tx, boardID, *req.GroupID); err != nil {
				return err
			}
			updates["group_id"] = *req.GroupID
		}
		if len(req.Columns) > 0 {
			updates["columns"] = datatypes.NewJSONType(mergeCells(it.Columns.Data(), req.Columns))
		}
		return tx.Model(&it).Updates(updates).Error
	})
}

func (r *ItemRepository) Delete(ctx context.Context, boardID, itemID string) error {
	result := r.db.WithContext(ctx).Delete(&model.Item{}, "id = ? AND board_id = ?", itemID, boardID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}
