package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartattendance_backend/internals/features/attendance/qrtoken/model"
	"smartattendance_backend/internals/features/attendance/qrtoken/service"
	orgModel "smartattendance_backend/internals/features/organisations/organisation/model"
)

// TokenRepository is the GORM-backed TokenStore.
type TokenRepository struct {
	DB *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

var _ service.TokenStore = (*TokenRepository)(nil)

func (r *TokenRepository) Transact(ctx context.Context, fn func(tx service.TokenStore) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TokenRepository{DB: tx})
	})
}

// LockOrganisation serializes concurrent issuers on the organisation row.
// Row locks on the tokens themselves cannot do this when the active set is
// empty, and under read committed a waiter re-checking token rows after the
// winner commits would miss the freshly inserted replacement.
func (r *TokenRepository) LockOrganisation(ctx context.Context, orgID uint64) error {
	var org orgModel.OrganisationModel
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orgID).
		First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Existence is the caller's concern; nothing to serialize on.
		return nil
	}
	return err
}

func (r *TokenRepository) Create(ctx context.Context, rec *model.QrCodeRecordModel) error {
	return r.DB.WithContext(ctx).Create(rec).Error
}

func (r *TokenRepository) Save(ctx context.Context, rec *model.QrCodeRecordModel) error {
	return r.DB.WithContext(ctx).Save(rec).Error
}

func (r *TokenRepository) FindByID(ctx context.Context, id uint64) (*model.QrCodeRecordModel, error) {
	var rec model.QrCodeRecordModel
	if err := r.DB.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *TokenRepository) ActiveByOrganisation(ctx context.Context, orgID uint64) ([]model.QrCodeRecordModel, error) {
	var recs []model.QrCodeRecordModel
	err := r.DB.WithContext(ctx).
		Where("organisation_id = ? AND active = TRUE", orgID).
		Order("created_at DESC").
		Find(&recs).Error
	return recs, err
}

func (r *TokenRepository) DeactivateByOrganisation(ctx context.Context, orgID uint64, clearAutoRotating bool) error {
	updates := map[string]interface{}{"active": false}
	if clearAutoRotating {
		updates["auto_rotating"] = false
	}
	return r.DB.WithContext(ctx).
		Model(&model.QrCodeRecordModel{}).
		Where("organisation_id = ? AND active = TRUE", orgID).
		Updates(updates).Error
}

func (r *TokenRepository) Deactivate(ctx context.Context, id uint64) error {
	// No-op on already-inactive rows, so the sweeper and lazy refresh can
	// race without either treating it as an error.
	return r.DB.WithContext(ctx).
		Model(&model.QrCodeRecordModel{}).
		Where("id = ?", id).
		Update("active", false).Error
}

func (r *TokenRepository) ActiveAutoRotating(ctx context.Context) ([]model.QrCodeRecordModel, error) {
	var recs []model.QrCodeRecordModel
	err := r.DB.WithContext(ctx).
		Where("active = TRUE AND auto_rotating = TRUE").
		Find(&recs).Error
	return recs, err
}

func (r *TokenRepository) HasActiveAutoRotating(ctx context.Context, orgID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.QrCodeRecordModel{}).
		Where("organisation_id = ? AND active = TRUE AND auto_rotating = TRUE", orgID).
		Count(&count).Error
	return count > 0, err
}

func (r *TokenRepository) IncrementScanCount(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).
		Model(&model.QrCodeRecordModel{}).
		Where("id = ?", id).
		UpdateColumn("scan_count", gorm.Expr("scan_count + 1")).Error
}
