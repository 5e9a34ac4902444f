package model

import (
	"time"

	commonModel "smartattendance_backend/internals/features/common/model"
	orgModel "smartattendance_backend/internals/features/organisations/organisation/model"
)

// QrCodeRecordModel is a short-lived, signed, organisation-scoped token.
// At most one row per organisation may have active = true at any instant:
// issuance deactivates the previous one inside the same transaction while
// holding the organisation lock, and the partial unique index on
// (organisation_id) WHERE active backstops it at the schema level.
// Rows are never physically deleted.
type QrCodeRecordModel struct {
	commonModel.BaseModel

	Code      string  `gorm:"column:code;size:128;uniqueIndex;not null" json:"code"`
	Payload   *string `gorm:"column:payload;size:2048" json:"payload,omitempty"`
	Signature *string `gorm:"column:signature;size:128" json:"signature,omitempty"`

	OrganisationID uint64                      `gorm:"column:organisation_id;not null;uniqueIndex:uq_qr_active_org,where:active = true" json:"organisation_id"`
	Organisation   *orgModel.OrganisationModel `gorm:"foreignKey:OrganisationID" json:"-"`

	CreatedByID *uint64 `gorm:"column:created_by_admin_id" json:"created_by_admin_id,omitempty"`

	Latitude     float64 `gorm:"column:latitude;not null" json:"latitude"`
	Longitude    float64 `gorm:"column:longitude;not null" json:"longitude"`
	RadiusMeters int     `gorm:"column:radius_meters;not null;default:100" json:"radius_meters"`

	ExpiresAt time.Time `gorm:"column:expires_at;type:timestamptz;not null;index" json:"expires_at"`

	Active       bool `gorm:"column:active;not null;default:true;index" json:"active"`
	AutoRotating bool `gorm:"column:auto_rotating;not null;default:false" json:"auto_rotating"`
	ScanCount    int  `gorm:"column:scan_count;not null;default:0" json:"scan_count"`
}

func (QrCodeRecordModel) TableName() string {
	return "qr_code_records"
}

func (m *QrCodeRecordModel) IsExpired(now time.Time) bool {
	return m.ExpiresAt.Before(now)
}
