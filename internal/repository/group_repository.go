package repository

import (
	"context"
	"errors"
	"time"

	"orderlyflow/internal/api"
	"orderlyflow/internal/model"

	"gorm.io/gorm"
)

type GroupRepositoryInterface interface {
	ListByBoard(ctx context.Context, boardID string) ([]model.Group, error)
	Create(ctx context.Context, g *model.Group) error
	Update(ctx context.Context, boardID, groupID string, req api.UpdateGroupRequest) error
	Delete(ctx context.Context, boardID, groupID string) error
}

var _ GroupRepositoryInterface = (*GroupRepository)(nil)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) ListByBoard(ctx context.Context, boardID string) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("position, created_at").
		Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) Create(ctx context.Context, g *model.Group) error {
	err := r.db.WithContext(ctx).Create(g).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateID
	}
	return err
}

// Update applies the fields present in req.
func (r *GroupRepository) Update(ctx context.Context, boardID, groupID string, req api.UpdateGroupRequest) error {
	updates := map[string]any{"updated_at": time.Now()}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	result := r.db.WithContext(ctx).Model(&model.Group{}).
		Where("id = ? AND board_id = ?", groupID, boardID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// Delete removes the group with its items, subitems and their updates.
func (r *GroupRepository) Delete(ctx context.Context, boardID, groupID string) error {
	result := r.db.WithContext(ctx).Delete(&model.Group{}, "id = ? AND board_id = ?", groupID, boardID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGroupNotFound
	}
	return nil
}
