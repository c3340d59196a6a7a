package repository

import (
	"context"
	"errors"

	"orderlyflow/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepositoryInterface reads the identity-provider mirror of users.
// Update authors are resolved through GetByID.
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	Ensure(ctx context.Context, user *model.User) (*model.User, error)
}

var _ UserRepositoryInterface = (*UserRepository)(nil)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Ensure stores user unless its email is already registered and returns the
// stored row, which keeps the existing id for a known email.
func (r *UserRepository) Ensure(ctx context.Context, user *model.User) (*model.User, error) {
	var stored model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
			Create(user).Error
		if err != nil {
			return err
		}
		return tx.Where("email = ?", user.Email).First(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}
