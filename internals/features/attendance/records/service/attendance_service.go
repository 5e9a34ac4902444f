package service

import (
	"context"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"

	"smartattendance_backend/internals/configs"
	qrDto "smartattendance_backend/internals/features/attendance/qrtoken/dto"
	qrModel "smartattendance_backend/internals/features/attendance/qrtoken/model"
	"smartattendance_backend/internals/features/attendance/records/dto"
	"smartattendance_backend/internals/features/attendance/records/model"
	orgModel "smartattendance_backend/internals/features/organisations/organisation/model"
	userModel "smartattendance_backend/internals/features/users/user/model"
	helper "smartattendance_backend/internals/helpers"
	"smartattendance_backend/internals/helpers/geo"
)

// RecordStore is the persistence boundary for attendance records.
type RecordStore interface {
	Create(ctx context.Context, rec *model.AttendanceRecordModel) error
	Save(ctx context.Context, rec *model.AttendanceRecordModel) error
	// FindByID returns (nil, nil) for unknown or soft-deleted ids.
	FindByID(ctx context.Context, id uint64) (*model.AttendanceRecordModel, error)
	// FindTodayByUser returns (nil, nil) when the member has no non-deleted
	// record on that day.
	FindTodayByUser(ctx context.Context, userID uint64, day datatypes.Date) (*model.AttendanceRecordModel, error)
	ByUserBetween(ctx context.Context, userID uint64, start, end time.Time) ([]model.AttendanceRecordModel, error)
	ByOrganisation(ctx context.Context, orgID uint64, start, end time.Time, userID *uint64) ([]model.AttendanceRecordModel, error)
	LastNByUser(ctx context.Context, userID uint64, n int) ([]model.AttendanceRecordModel, error)
	PageByUser(ctx context.Context, userID uint64, start, end time.Time, method *string, limit, offset int) ([]model.AttendanceRecordModel, int64, error)
}

// TokenValidator is the slice of the QR token service the ledger needs.
type TokenValidator interface {
	Validate(ctx context.Context, rawPayload string) (*qrModel.QrCodeRecordModel, *qrDto.QrCodePayload, error)
	IncrementScan(ctx context.Context, tokenID uint64) error
}

type UserStore interface {
	FindByID(ctx context.Context, id uint64) (*userModel.UserModel, error)
}

type OrganisationStore interface {
	FindByID(ctx context.Context, id uint64) (*orgModel.OrganisationModel, error)
}

// AttendanceService owns the check-in/check-out state machine: per member
// and calendar day, NONE -> OPEN -> CLOSED, with no transitions out of
// CLOSED. Stateless beyond injected dependencies.
type AttendanceService struct {
	Records RecordStore
	Tokens  TokenValidator
	Users   UserStore
	Orgs    OrganisationStore
	Now     func() time.Time
}

func NewAttendanceService(records RecordStore, tokens TokenValidator, users UserStore, orgs OrganisationStore) *AttendanceService {
	return &AttendanceService{Records: records, Tokens: tokens, Users: users, Orgs: orgs, Now: time.Now}
}

// CheckInWithQr validates the scanned payload, the organisation binding and
// the geofence before opening today's session. No side effect is persisted
// until every check has passed; the scan counter bumps last.
func (s *AttendanceService) CheckInWithQr(ctx context.Context, userID uint64, req dto.CheckInRequest) (*model.AttendanceRecordModel, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Latitude == nil || req.Longitude == nil {
		return nil, helper.ValidationErr(helper.CodeLocationRequired, "Device location is required to complete check-in")
	}

	token, _, err := s.Tokens.Validate(ctx, req.QrCode)
	if err != nil {
		return nil, err
	}

	if user.OrganisationID == nil || *user.OrganisationID != token.OrganisationID {
		return nil, helper.SecurityErr(helper.CodeWrongOrganisationQR, "Wrong organisation QR")
	}

	now := s.Now()
	existing, err := s.Records.FindTodayByUser(ctx, userID, dayOf(now))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, helper.ConflictErr(helper.CodeAlreadyCheckedIn,
			"You have already checked in today. Please check-out first if you want to leave.")
	}

	distance := geo.DistanceMeters(token.Latitude, token.Longitude, *req.Latitude, *req.Longitude)
	if !geo.WithinRadius(distance, token.RadiusMeters) {
		return nil, helper.GeofenceErr(distance)
	}

	rec := &model.AttendanceRecordModel{
		UserID:         userID,
		CheckInTime:    now,
		CheckInMethod:  model.MethodQr,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AttendanceDate: dayOf(now),
	}
	if err := s.Records.Create(ctx, rec); err != nil {
		if isUniqueViolation(err) {
			// Lost the race against a concurrent check-in; the partial unique
			// index is the authoritative guard.
			return nil, helper.ConflictErr(helper.CodeAlreadyCheckedIn,
				"You have already checked in today. Please check-out first if you want to leave.")
		}
		return nil, err
	}

	if err := s.Tokens.IncrementScan(ctx, token.ID); err != nil {
		log.Printf("[ATTENDANCE] scan count bump failed for token %d: %v", token.ID, err)
	}
	return rec, nil
}

// CheckOutWithQr mirrors CheckInWithQr but requires today's session to be
// open, and closes it.
func (s *AttendanceService) CheckOutWithQr(ctx context.Context, userID uint64, req dto.CheckOutRequest) (*model.AttendanceRecordModel, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Latitude == nil || req.Longitude == nil {
		return nil, helper.ValidationErr(helper.CodeLocationRequired, "Device location is required to complete check-out")
	}

	token, _, err := s.Tokens.Validate(ctx, req.QrCode)
	if err != nil {
		return nil, err
	}

	if user.OrganisationID == nil || *user.OrganisationID != token.OrganisationID {
		return nil, helper.SecurityErr(helper.CodeWrongOrganisationQR, "Wrong organisation QR")
	}

	now := s.Now()
	rec, err := s.openSessionForToday(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	distance := geo.DistanceMeters(token.Latitude, token.Longitude, *req.Latitude, *req.Longitude)
	if !geo.WithinRadius(distance, token.RadiusMeters) {
		return nil, helper.GeofenceErr(distance)
	}

	checkOutTime := now
	if req.CheckOutTime != nil {
		checkOutTime = *req.CheckOutTime
	}
	if checkOutTime.Before(rec.CheckInTime) {
		return nil, helper.ValidationErr(helper.CodeInvalidCheckoutTime, "Check-out time cannot be before check-in time")
	}

	method := model.MethodQr
	rec.CheckOutTime = &checkOutTime
	rec.CheckOutMethod = &method
	if err := s.Records.Save(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.Tokens.IncrementScan(ctx, token.ID); err != nil {
		log.Printf("[ATTENDANCE] scan count bump failed for token %d: %v", token.ID, err)
	}
	return rec, nil
}

// CheckIn is the manual variant for trusted callers: no token, no geofence,
// only the one-session-per-day invariant and an explicit organisation
// context check.
func (s *AttendanceService) CheckIn(ctx context.Context, userID, orgContext uint64, req dto.CheckInRequest) (*model.AttendanceRecordModel, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.OrganisationID == nil || *user.OrganisationID != orgContext {
		return nil, helper.SecurityErr(helper.CodeWrongOrganisation, "You can only check-in to your own organisation")
	}

	now := s.Now()
	existing, err := s.Records.FindTodayByUser(ctx, userID, dayOf(now))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, helper.ConflictErr(helper.CodeAlreadyCheckedIn,
			"You have already checked in today. Please check-out first if you want to leave.")
	}

	method := model.MethodWeb
	if req.CheckInMethod != nil {
		method = *req.CheckInMethod
	}

	rec := &model.AttendanceRecordModel{
		UserID:         userID,
		CheckInTime:    now,
		CheckInMethod:  method,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AttendanceDate: dayOf(now),
	}
	if err := s.Records.Create(ctx, rec); err != nil {
		if isUniqueViolation(err) {
			return nil, helper.ConflictErr(helper.CodeAlreadyCheckedIn,
				"You have already checked in today. Please check-out first if you want to leave.")
		}
		return nil, err
	}
	return rec, nil
}

// CheckOut is the manual close of today's open session.
func (s *AttendanceService) CheckOut(ctx context.Context, userID, orgContext uint64, req dto.CheckOutRequest) (*model.AttendanceRecordModel, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.OrganisationID == nil || *user.OrganisationID != orgContext {
		return nil, helper.SecurityErr(helper.CodeWrongOrganisation, "You can only check-out in your own organisation")
	}

	now := s.Now()
	rec, err := s.openSessionForToday(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	checkOutTime := now
	if req.CheckOutTime != nil {
		checkOutTime = *req.CheckOutTime
	}
	if checkOutTime.Before(rec.CheckInTime) {
		return nil, helper.ValidationErr(helper.CodeInvalidCheckoutTime, "Check-out time cannot be before check-in time")
	}

	method := model.MethodWeb
	if req.CheckOutMethod != nil {
		method = *req.CheckOutMethod
	}
	rec.CheckOutTime = &checkOutTime
	rec.CheckOutMethod = &method
	if err := s.Records.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// TodayAttendance returns today's record or nil.
func (s *AttendanceService) TodayAttendance(ctx context.Context, userID uint64) (*model.AttendanceRecordModel, error) {
	return s.Records.FindTodayByUser(ctx, userID, dayOf(s.Now()))
}

func (s *AttendanceService) Recent(ctx context.Context, userID uint64) ([]model.AttendanceRecordModel, error) {
	return s.Records.LastNByUser(ctx, userID, 7)
}

func (s *AttendanceService) History(ctx context.Context, userID uint64, start, end time.Time, method *string, limit, offset int) ([]model.AttendanceRecordModel, int64, error) {
	return s.Records.PageByUser(ctx, userID, start, end, method, limit, offset)
}

func (s *AttendanceService) ByOrganisation(ctx context.Context, orgID uint64, start, end time.Time, userID *uint64) ([]model.AttendanceRecordModel, error) {
	return s.Records.ByOrganisation(ctx, orgID, start, end, userID)
}

// UpdateCheckOut is the admin correction path; the record must belong to the
// admin's organisation.
func (s *AttendanceService) UpdateCheckOut(ctx context.Context, id, orgContext uint64, checkOutTime time.Time) (*model.AttendanceRecordModel, error) {
	rec, err := s.recordInOrganisation(ctx, id, orgContext)
	if err != nil {
		return nil, err
	}
	if checkOutTime.Before(rec.CheckInTime) {
		return nil, helper.ValidationErr(helper.CodeInvalidCheckoutTime, "Check-out time cannot be before check-in time")
	}
	rec.CheckOutTime = &checkOutTime
	if err := s.Records.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SoftDelete marks the record deleted; it never leaves storage.
func (s *AttendanceService) SoftDelete(ctx context.Context, id, orgContext uint64) error {
	rec, err := s.recordInOrganisation(ctx, id, orgContext)
	if err != nil {
		return err
	}
	rec.Deleted = true
	return s.Records.Save(ctx, rec)
}

// LateThresholdFor resolves the late-arrival cutoff: the organisation's
// configured work-start time when present and well-formed HH:MM, otherwise
// the global default.
func (s *AttendanceService) LateThresholdFor(ctx context.Context, orgID *uint64) string {
	if orgID == nil {
		return configs.LateThreshold
	}
	org, err := s.Orgs.FindByID(ctx, *orgID)
	if err != nil || org == nil {
		return configs.LateThreshold
	}
	if _, err := time.Parse("15:04", org.StartWorkTime); err != nil {
		return configs.LateThreshold
	}
	return org.StartWorkTime
}

func (s *AttendanceService) requireUser(ctx context.Context, userID uint64) (*userModel.UserModel, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, helper.NotFoundErr("User not found")
	}
	return user, nil
}

// openSessionForToday distinguishes "never checked in" from "already closed".
func (s *AttendanceService) openSessionForToday(ctx context.Context, userID uint64, now time.Time) (*model.AttendanceRecordModel, error) {
	rec, err := s.Records.FindTodayByUser(ctx, userID, dayOf(now))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, helper.ConflictErr(helper.CodeNoOpenSession,
			"No check-in record found for today. Please check-in first.")
	}
	if rec.CheckOutTime != nil {
		return nil, helper.ConflictErr(helper.CodeAlreadyCheckedOut, "You have already checked out today")
	}
	return rec, nil
}

func (s *AttendanceService) recordInOrganisation(ctx context.Context, id, orgContext uint64) (*model.AttendanceRecordModel, error) {
	rec, err := s.Records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, helper.NotFoundErr("Attendance record not found")
	}
	if rec.User == nil || rec.User.OrganisationID == nil || *rec.User.OrganisationID != orgContext {
		return nil, helper.NotFoundErr("Attendance record not found in this organisation")
	}
	return rec, nil
}

func dayOf(t time.Time) datatypes.Date {
	return datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()))
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "sqlstate 23505") ||
		strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "unique constraint")
}
