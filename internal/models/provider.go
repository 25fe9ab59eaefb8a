package models

import "time"

// Provider is the directory entry for a care provider. Profile editing
// happens elsewhere; the scheduler only reads it.
type Provider struct {
	ID             string `gorm:"primaryKey;size:64" json:"id"`
	Name           string `gorm:"size:100;not null" json:"name"`
	Specialization string `gorm:"size:100;index" json:"specialization"`
	Timezone       string `gorm:"size:64" json:"timezone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
