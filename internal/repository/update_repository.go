package repository

import (
	"context"
	"errors"
	"fmt"

	"orderlyflow/internal/board"
	"orderlyflow/internal/model"

	"gorm.io/gorm"
)

type UpdateRepositoryInterface interface {
	List(ctx context.Context, boardID, entityID string, t board.EntityType) ([]model.Update, error)
	Count(ctx context.Context, boardID, entityID string, t board.EntityType) (int64, error)
	GetByID(ctx context.Context, id string) (*model.Update, error)
	Create(ctx context.Context, u *model.Update) error
	Delete(ctx context.Context, id string) error
}

var _ UpdateRepositoryInterface = (*UpdateRepository)(nil)

type UpdateRepository struct {
	db *gorm.DB
}

func NewUpdateRepository(db *gorm.DB) *UpdateRepository {
	return &UpdateRepository{db: db}
}

func (r *UpdateRepository) scope(ctx context.Context, boardID, entityID string, t board.EntityType) (*gorm.DB, error) {
	col, ok := model.ParentColumn(t)
	if !ok {
		return nil, fmt.Errorf("unknown item type %q", t)
	}
	return r.db.WithContext(ctx).Model(&model.Update{}).
		Where("board_id = ? AND "+col+" = ?", boardID, entityID), nil
}

// List returns the thread in creation order.
func (r *UpdateRepository) List(ctx context.Context, boardID, entityID string, t board.EntityType) ([]model.Update, error) {
	q, err := r.scope(ctx, boardID, entityID, t)
	if err != nil {
		return nil, err
	}
	var updates []model.Update
	err = q.Order("created_at").Find(&updates).Error
	return updates, err
}

func (r *UpdateRepository) Count(ctx context.Context, boardID, entityID string, t board.EntityType) (int64, error) {
	q, err := r.scope(ctx, boardID, entityID, t)
	if err != nil {
		return 0, err
	}
	var n int64
	err = q.Count(&n).Error
	return n, err
}

func (r *UpdateRepository) GetByID(ctx context.Context, id string) (*model.Update, error) {
	var u model.Update
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUpdateNotFound
		}
		return nil, err
	}
	return &u, nil
}

func parentModel(t board.EntityType) any {
	switch t {
	case board.EntityGroup:
		return &model.Group{}
	case board.EntityItem:
		return &model.Item{}
	case board.EntitySubitem:
		return &model.Subitem{}
	}
	return nil
}

// Create inserts u after checking its parent belongs to u's board.
func (r *UpdateRepository) Create(ctx context.Context, u *model.Update) error {
	parent := parentModel(u.ItemType)
	if parent == nil {
		return fmt.Errorf("unknown item type %q", u.ItemType)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(parent).Where("id = ? AND board_id = ?", u.ParentID(), u.BoardID).Count(&n).Error
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrParentNotFound
		}
		return tx.Create(u).Error
	})
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrParentNotFound
	}
	return err
}

func (r *UpdateRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&model.Update{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUpdateNotFound
	}
	return nil
}
