package repository

import (
	"context"
	"errors"
	"time"

	"orderlyflow/internal/api"
	"orderlyflow/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubitemRepositoryInterface interface {
	ListByBoard(ctx context.Context, boardID string) ([]model.Subitem, error)
	Create(ctx context.Context, s *model.Subitem) error
	Update(ctx context.Context, boardID, subitemID string, req api.UpdateSubitemRequest) error
	Delete(ctx context.Context, boardID, subitemID string) error
}

var _ SubitemRepositoryInterface = (*SubitemRepository)(nil)

type SubitemRepository struct {
	db *gorm.DB
}

func NewSubitemRepository(db *gorm.DB) *SubitemRepository {
	return &SubitemRepository{db: db}
}

func (r *SubitemRepository) ListByBoard(ctx context.Context, boardID string) ([]model.Subitem, error) {
	var subitems []model.Subitem
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("position, created_at").
		Find(&subitems).Error
	return subitems, err
}

func (r *SubitemRepository) Create(ctx context.Context, s *model.Subitem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Item{}).Where("id = ? AND board_id = ?", s.ItemID, s.BoardID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrItemNotFound
		}
		err := tx.Create(s).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateID
		}
		return err
	})
}

func (r *SubitemRepository) Update(ctx context.Context, boardID, subitemID string, req api.UpdateSubitemRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s model.Subitem
		if err := tx.Where("id = ? AND board_id = ?", subitemID, boardID).First(&s).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubitemNotFound
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
		if len(req.Columns) > 0 {
			updates["columns"] = datatypes.NewJSONType(mergeCells(s.Columns.Data(), req.Columns))
		}
		return tx.Model(&s).Updates(updates).Error
	})
}

func (r *SubitemRepository) Delete(ctx context.Context, boardID, subitemID string) error {
	result := r.db.WithContext(ctx).Delete(&model.Subitem{}, "id = ? AND board_id = ?", subitemID, boardID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubitemNotFound
	}
	return nil
}
