package repository

import (
	"context"
	"errors"
	"time"

	"orderlyflow/internal/api"
	"orderlyflow/internal/model"

	"gorm.io/gorm"
)

type PersonRepositoryInterface interface {
	ListByBoard(ctx context.Context, boardID string) ([]model.Person, error)
	Create(ctx context.Context, p *model.Person) error
	Update(ctx context.Context, boardID, personID string, req api.UpdatePersonRequest) (*model.Person, error)
	Delete(ctx context.Context, boardID, personID string) error
}

var _ PersonRepositoryInterface = (*PersonRepository)(nil)

type PersonRepository struct {
	db *gorm.DB
}

func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

func (r *PersonRepository) ListByBoard(ctx context.Context, boardID string) ([]model.Person, error) {
	var people []model.Person
	err := r.db.WithContext(ctx).Where("board_id = ?", boardID).Order("created_at").Find(&people).Error
	return people, err
}

func (r *PersonRepository) Create(ctx context.Context, p *model.Person) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateID
	}
	return err
}

func (r *PersonRepository) Update(ctx context.Context, boardID, personID string, req api.UpdatePersonRequest) (*model.Person, error) {
	var p model.Person
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND board_id = ?", personID, boardID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPersonNotFound
			}
			return err
		}
		updates := map[string]any{"updated_at": time.Now()}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Email != nil {
			updates["email"] = *req.Email
		}
		if req.Color != nil {
			updates["color"] = *req.Color
		}
		return tx.Model(&p).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PersonRepository) Delete(ctx context.Context, boardID, personID string) error {
	result := r.db.WithContext(ctx).Delete(&model.Person{}, "id = ? AND board_id = ?", personID, boardID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPersonNotFound
	}
	return nil
}
