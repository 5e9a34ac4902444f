package model

import (
	commonModel "smartattendance_backend/internals/features/common/model"
	orgModel "smartattendance_backend/internals/features/organisations/organisation/model"
)

type UserModel struct {
	commonModel.BaseModel

	FullName string `gorm:"column:full_name;not null" json:"full_name"`
	Email    string `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Password string `gorm:"column:password;not null" json:"-"`

	// SUPER_ADMIN | ADMIN | USER
	Role string `gorm:"column:role;size:32;not null;default:'USER'" json:"role"`

	OrganisationID *uint64                     `gorm:"column:organisation_id;index" json:"organisation_id,omitempty"`
	Organisation   *orgModel.OrganisationModel `gorm:"foreignKey:OrganisationID" json:"organisation,omitempty"`

	Active bool `gorm:"column:active;not null;default:true" json:"active"`
}

func (UserModel) TableName() string {
	return "users"
}
