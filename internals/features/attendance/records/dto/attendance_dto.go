package dto

import (
	"time"

	"gorm.io/datatypes"

	"smartattendance_backend/internals/features/attendance/records/model"
)

// CheckInRequest covers both the QR flow (QrCode set, coordinates required)
// and the manual flow (no QrCode, coordinates optional).
type CheckInRequest struct {
	Latitude      *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude     *float64 `json:"longitude" validate:"omitempty,longitude"`
	CheckInMethod *string  `json:"check_in_method" validate:"omitempty,oneof=WEB MOBILE_APP QR"`
	QrCode        string   `json:"qr_code"`
}

type CheckOutRequest struct {
	Latitude       *float64   `json:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64   `json:"longitude" validate:"omitempty,longitude"`
	CheckOutMethod *string    `json:"check_out_method" validate:"omitempty,oneof=WEB MOBILE_APP QR"`
	CheckOutTime   *time.Time `json:"check_out_time"`
	QrCode         string     `json:"qr_code"`
}

type UpdateCheckOutRequest struct {
	CheckOutTime time.Time `json:"check_out_time" validate:"required"`
}

type AttendanceRecordResponse struct {
	ID             uint64         `json:"id"`
	UserID         uint64         `json:"user_id"`
	UserName       string         `json:"user_name,omitempty"`
	UserEmail      string         `json:"user_email,omitempty"`
	CheckInTime    time.Time      `json:"check_in_time"`
	CheckInMethod  string         `json:"check_in_method"`
	CheckOutTime   *time.Time     `json:"check_out_time,omitempty"`
	CheckOutMethod *string        `json:"check_out_method,omitempty"`
	Latitude       *float64       `json:"latitude,omitempty"`
	Longitude      *float64       `json:"longitude,omitempty"`
	AttendanceDate datatypes.Date `json:"attendance_date"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func ToAttendanceResponse(rec *model.AttendanceRecordModel) AttendanceRecordResponse {
	resp := AttendanceRecordResponse{
		ID:             rec.ID,
		UserID:         rec.UserID,
		CheckInTime:    rec.CheckInTime,
		CheckInMethod:  rec.CheckInMethod,
		CheckOutTime:   rec.CheckOutTime,
		CheckOutMethod: rec.CheckOutMethod,
		Latitude:       rec.Latitude,
		Longitude:      rec.Longitude,
		AttendanceDate: rec.AttendanceDate,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
	if rec.User != nil {
		resp.UserName = rec.User.FullName
		resp.UserEmail = rec.User.Email
	}
	return resp
}

func ToAttendanceResponseList(recs []model.AttendanceRecordModel) []AttendanceRecordResponse {
	out := make([]AttendanceRecordResponse, 0, len(recs))
	for i := range recs {
		out = append(out, ToAttendanceResponse(&recs[i]))
	}
	return out
}
