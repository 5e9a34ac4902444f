package model

import (
	"time"

	"gorm.io/datatypes"

	commonModel "smartattendance_backend/internals/features/common/model"
	userModel "smartattendance_backend/internals/features/users/user/model"
)

// Attendance methods.
const (
	MethodWeb       = "WEB"
	MethodMobileApp = "MOBILE_APP"
	MethodQr        = "QR"
)

// AttendanceRecordModel is one member's open-to-close presence interval for
// a single calendar day. The partial unique index on (user_id,
// attendance_date) is the authoritative guard against concurrent double
// check-ins; the service-level existence check is only the fast path.
type AttendanceRecordModel struct {
	commonModel.BaseModel

	UserID uint64               `gorm:"column:user_id;not null;uniqueIndex:uq_attendance_user_day,where:deleted = false" json:"user_id"`
	User   *userModel.UserModel `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CheckInTime   time.Time  `gorm:"column:check_in_time;type:timestamptz;not null" json:"check_in_time"`
	CheckOutTime  *time.Time `gorm:"column:check_out_time;type:timestamptz" json:"check_out_time,omitempty"`
	CheckInMethod string     `gorm:"column:check_in_method;size:32;not null" json:"check_in_method"`
	CheckOutMethod *string   `gorm:"column:check_out_method;size:32" json:"check_out_method,omitempty"`

	Latitude  *float64 `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"column:longitude" json:"longitude,omitempty"`

	AttendanceDate datatypes.Date `gorm:"column:attendance_date;not null;uniqueIndex:uq_attendance_user_day,where:deleted = false" json:"attendance_date"`
}

func (AttendanceRecordModel) TableName() string {
	return "attendance_records"
}

// IsOpen reports whether the session has not been closed yet.
func (m *AttendanceRecordModel) IsOpen() bool {
	return m.CheckOutTime == nil
}

// DurationHours is the closed-session length in hours, 0 while open.
func (m *AttendanceRecordModel) DurationHours() float64 {
	if m.CheckOutTime == nil {
		return 0
	}
	return m.CheckOutTime.Sub(m.CheckInTime).Minutes() / 60.0
}
