package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"smartattendance_backend/internals/features/attendance/records/model"
	"smartattendance_backend/internals/features/attendance/records/service"
)

// AttendanceRepository is the GORM-backed RecordStore. Every query filters
// on the soft-delete flag.
type AttendanceRepository struct {
	DB *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

var _ service.RecordStore = (*AttendanceRepository)(nil)

func (r *AttendanceRepository) Create(ctx context.Context, rec *model.AttendanceRecordModel) error {
	return r.DB.WithContext(ctx).Create(rec).Error
}

func (r *AttendanceRepository) Save(ctx context.Context, rec *model.AttendanceRecordModel) error {
	return r.DB.WithContext(ctx).Save(rec).Error
}

func (r *AttendanceRepository) FindByID(ctx context.Context, id uint64) (*model.AttendanceRecordModel, error) {
	var rec model.AttendanceRecordModel
	if err := r.DB.WithContext(ctx).
		Preload("User").
		Where("id = ? AND deleted = FALSE", id).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *AttendanceRepository) FindTodayByUser(ctx context.Context, userID uint64, day datatypes.Date) (*model.AttendanceRecordModel, error) {
	var rec model.AttendanceRecordModel
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND attendance_date = ? AND deleted = FALSE", userID, day).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *AttendanceRepository) ByUserBetween(ctx context.Context, userID uint64, start, end time.Time) ([]model.AttendanceRecordModel, error) {
	var recs []model.AttendanceRecordModel
	err := r.DB.WithContext(ctx).
		Preload("User").
		Where("user_id = ? AND deleted = FALSE", userID).
		Where("attendance_date BETWEEN ? AND ?", datatypes.Date(start), datatypes.Date(end)).
		Order("attendance_date ASC").
		Find(&recs).Error
	return recs, err
}

func (r *AttendanceRepository) ByOrganisation(ctx context.Context, orgID uint64, start, end time.Time, userID *uint64) ([]model.AttendanceRecordModel, error) {
	q := r.DB.WithContext(ctx).
		Preload("User").
		Joins("JOIN users ON users.id = attendance_records.user_id").
		Where("users.organisation_id = ?", orgID).
		Where("attendance_records.deleted = FALSE").
		Where("attendance_records.attendance_date BETWEEN ? AND ?", datatypes.Date(start), datatypes.Date(end))
	if userID != nil {
		q = q.Where("attendance_records.user_id = ?", *userID)
	}

	var recs []model.AttendanceRecordModel
	err := q.Order("attendance_records.attendance_date ASC, attendance_records.check_in_time ASC").
		Find(&recs).Error
	return recs, err
}

func (r *AttendanceRepository) LastNByUser(ctx context.Context, userID uint64, n int) ([]model.AttendanceRecordModel, error) {
	var recs []model.AttendanceRecordModel
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND deleted = FALSE", userID).
		Order("attendance_date DESC").
		Limit(n).
		Find(&recs).Error
	return recs, err
}

func (r *AttendanceRepository) PageByUser(ctx context.Context, userID uint64, start, end time.Time, method *string, limit, offset int) ([]model.AttendanceRecordModel, int64, error) {
	base := r.DB.WithContext(ctx).
		Model(&model.AttendanceRecordModel{}).
		Where("user_id = ? AND deleted = FALSE", userID).
		Where("attendance_date BETWEEN ? AND ?", datatypes.Date(start), datatypes.Date(end))
	if method != nil {
		base = base.Where("check_in_method = ?", *method)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []model.AttendanceRecordModel
	err := base.
		Order("attendance_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	return recs, total, err
}
