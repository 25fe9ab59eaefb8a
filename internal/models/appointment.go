package models

import "time"

type Appointment struct {
	ID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`

	ProviderID string `gorm:"size:64;not null;index:idx_appointments_provider_start" json:"provider_id"`
	PatientID  string `gorm:"size:64;not null;index" json:"patient_id"`

	StartTime time.Time `gorm:"not null;index:idx_appointments_provider_start" json:"start"`
	EndTime   time.Time `gorm:"not null" json:"end"`

	Status string `gorm:"size:20;default:'scheduled'" json:"status"`
	Reason string `gorm:"size:500" json:"reason"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
