package model

import "time"

// BaseModel carries the fields shared by every entity: numeric id,
// timestamps, and the soft-delete flag. Query paths must filter on Deleted.
type BaseModel struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;autoUpdateTime" json:"updated_at"`
	Deleted   bool      `gorm:"column:deleted;not null;default:false" json:"-"`
}
