package model

import (
	commonModel "smartattendance_backend/internals/features/common/model"
)

type OrganisationModel struct {
	commonModel.BaseModel

	Name     string `gorm:"column:name;not null" json:"name"`
	Location string `gorm:"column:location;not null" json:"location"`

	// Reference point for the geofence. Nullable; token issuance falls
	// back to the configured default when absent.
	Latitude  *float64 `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"column:longitude" json:"longitude,omitempty"`

	ContactEmail string  `gorm:"column:contact_email;uniqueIndex;not null" json:"contact_email"`
	ContactPhone *string `gorm:"column:contact_phone" json:"contact_phone,omitempty"`

	// HH:MM time-of-day; check-ins after this count as late.
	StartWorkTime string `gorm:"column:start_work_time;size:5;not null;default:'08:15'" json:"start_work_time"`

	CreatedByID *uint64 `gorm:"column:created_by_id" json:"created_by_id,omitempty"`
}

func (OrganisationModel) TableName() string {
	return "organisations"
}
