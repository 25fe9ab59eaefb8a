package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type ReserveInput struct {
	ProviderID string
	PatientID  string
	Start      time.Time
	End        time.Time
	Reason     string
}

// Ledger is the authoritative appointment store. Reserve is the only
// serializable path: at most one active appointment may exist per
// (provider, start), and a losing attempt gets a conflict error.
type Ledger interface {
	// -------- Reservation --------
	Reserve(
		ctx context.Context,
		in ReserveInput,
	) (*models.Appointment, error)

	// -------- State change --------
	Cancel(
		ctx context.Context,
		appointmentID string,
		now time.Time,
	) (*models.Appointment, bool, error)

	Confirm(
		ctx context.Context,
		appointmentID string,
		now time.Time,
	) (*models.Appointment, bool, error)

	Complete(
		ctx context.Context,
		appointmentID string,
		now time.Time,
	) (*models.Appointment, error)

	// -------- Reads --------
	GetAppointment(
		ctx context.Context,
		appointmentID string,
	) (*models.Appointment, error)

	ListAppointmentsForPeriod(
		ctx context.Context,
		providerID string,
		start time.Time,
		end time.Time,
		includeCancelled bool,
	) ([]models.Appointment, error)

	ListAppointmentsForPatient(
		ctx context.Context,
		patientID string,
	) ([]models.Appointment, error)
}

// ConfigStore holds one availability config per provider.
type ConfigStore interface {
	GetConfig(
		ctx context.Context,
		providerID string,
	) (*models.AvailabilityConfig, error)

	// SaveConfig upserts the row and bumps its version.
	SaveConfig(
		ctx context.Context,
		cfg *models.AvailabilityConfig,
	) error
}

type ProviderDirectory interface {
	GetProvider(
		ctx context.Context,
		providerID string,
	) (*models.Provider, error)

	ListProviders(
		ctx context.Context,
		specialization string,
	) ([]models.Provider, error)

	SaveProvider(
		ctx context.Context,
		p *models.Provider,
	) error
}
