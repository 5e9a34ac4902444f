package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"smartattendance_backend/internals/features/organisations/organisation/model"
)

type OrganisationRepository struct {
	DB *gorm.DB
}

func NewOrganisationRepository(db *gorm.DB) *OrganisationRepository {
	return &OrganisationRepository{DB: db}
}

// FindByID returns (nil, nil) when the organisation does not exist or was
// soft-deleted.
func (r *OrganisationRepository) FindByID(ctx context.Context, id uint64) (*model.OrganisationModel, error) {
	var org model.OrganisationModel
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND deleted = FALSE", id).
		First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}
