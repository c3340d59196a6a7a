package repository

import (
	"context"
	"errors"

	"orderlyflow/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrganizationRepositoryInterface interface {
	ListMembers(ctx context.Context, organizationID string) ([]model.Member, error)
	IsMember(ctx context.Context, organizationID, userID string) (bool, error)
}

var _ OrganizationRepositoryInterface = (*OrganizationRepository)(nil)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) ListMembers(ctx context.Context, organizationID string) ([]model.Member, error) {
	var members []model.Member
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("organization_id = ?", organizationID).
		Order("created_at").
		Find(&members).Error
	return members, err
}

func (r *OrganizationRepository) IsMember(ctx context.Context, organizationID, userID string) (bool, error) {
	var m model.Member
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Upsert writes an organization and its members, leaving existing rows
// untouched. Used to seed lookup data.
func (r *OrganizationRepository) Upsert(ctx context.Context, org *model.Organization, members []model.Member) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(org).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Omit("User", "Organization").Create(&members).Error
	})
}
