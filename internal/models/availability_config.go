package models

import "time"

type AvailabilityConfig struct {
	ProviderID string `gorm:"primaryKey;size:64" json:"provider_id"`

	WorkStart string `gorm:"size:5;not null" json:"work_start"`
	WorkEnd   string `gorm:"size:5;not null" json:"work_end"`

	SlotDurationMin   int    `gorm:"not null" json:"slot_duration"`
	BufferDurationMin int    `gorm:"not null;default:0" json:"buffer_duration"`
	Mode              string `gorm:"size:20;not null;default:'continuous'" json:"mode"`

	Version int64 `gorm:"not null;default:0" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
