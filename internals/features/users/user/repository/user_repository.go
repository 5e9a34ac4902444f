package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"smartattendance_backend/internals/features/users/user/model"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// FindByID returns (nil, nil) when no active, non-deleted user matches.
func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND deleted = FALSE", id).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.DB.WithContext(ctx).
		Where("email = ? AND deleted = FALSE", email).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
