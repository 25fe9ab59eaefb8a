package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/clinic-scheduler/internal/db"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// --------------------------------------------------
// Reservation
// --------------------------------------------------

// Reserve locks any overlapping active rows of the provider and inserts the
// appointment in the same transaction. The partial unique index on
// (provider_id, start_time) settles races the lock cannot see.
func (r *AppointmentGormRepository) Reserve(
	ctx context.Context,
	in domain.ReserveInput,
) (*models.Appointment, error) {

	if !in.End.After(in.Start) {
		return nil, httperr.ErrValidation("end must be after start")
	}

	var created models.Appointment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var clashing []models.Appointment
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(
				"provider_id = ? AND status <> ? AND start_time < ? AND end_time > ?",
				in.ProviderID, string(domain.StatusCancelled), in.End, in.Start,
			).
			Find(&clashing).Error; err != nil {
			return err
		}

		if len(clashing) > 0 {
			return slotConflict(in.Start)
		}

		ap := models.Appointment{
			ID:         uuid.NewString(),
			ProviderID: in.ProviderID,
			PatientID:  in.PatientID,
			StartTime:  in.Start,
			EndTime:    in.End,
			Status:     string(domain.InitialStatus()),
			Reason:     in.Reason,
		}

		if err := tx.Create(&ap).Error; err != nil {
			return err
		}

		created = ap
		return nil
	})

	if err != nil {
		if httperr.IsUniqueViolation(err, db.SlotIndex) {
			return nil, slotConflict(in.Start)
		}
		return nil, httperr.Store("reserve", err)
	}

	return &created, nil
}

func slotConflict(start time.Time) error {
	return httperr.ErrBusinessf(httperr.CodeConflict, "slot %s already reserved", start.Format(time.RFC3339))
}

// --------------------------------------------------
// State change
// --------------------------------------------------

func (r *AppointmentGormRepository) transition(
	ctx context.Context,
	op string,
	appointmentID string,
	fn func(ap *models.Appointment) (bool, error),
) (*models.Appointment, bool, error) {

	var (
		out     models.Appointment
		changed bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var ap models.Appointment
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", appointmentID).
			First(&ap).Error; err != nil {
			return err
		}

		ok, err := fn(&ap)
		if err != nil {
			return err
		}

		if ok {
			if err := tx.Save(&ap).Error; err != nil {
				return err
			}
		}

		out = ap
		changed = ok
		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, httperr.ErrNotFound("appointment")
		}
		return nil, false, httperr.Store(op, err)
	}

	return &out, changed, nil
}

func (r *AppointmentGormRepository) Cancel(
	ctx context.Context,
	appointmentID string,
	now time.Time,
) (*models.Appointment, bool, error) {
	return r.transition(ctx, "cancel", appointmentID, func(ap *models.Appointment) (bool, error) {
		return domain.Cancel(ap, now)
	})
}

func (r *AppointmentGormRepository) Confirm(
	ctx context.Context,
	appointmentID string,
	now time.Time,
) (*models.Appointment, bool, error) {
	return r.transition(ctx, "confirm", appointmentID, func(ap *models.Appointment) (bool, error) {
		return domain.Confirm(ap, now)
	})
}

func (r *AppointmentGormRepository) Complete(
	ctx context.Context,
	appointmentID string,
	now time.Time,
) (*models.Appointment, error) {
	ap, _, err := r.transition(ctx, "complete", appointmentID, func(ap *models.Appointment) (bool, error) {
		return true, domain.Complete(ap, now)
	})
	return ap, err
}

// --------------------------------------------------
// Reads
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	appointmentID string,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Where("id = ?", appointmentID).
		First(&ap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrNotFound("appointment")
		}
		return nil, httperr.Store("get appointment", err)
	}

	return &ap, nil
}

func (r *AppointmentGormRepository) ListAppointmentsForPeriod(
	ctx context.Context,
	providerID string,
	start time.Time,
	end time.Time,
	includeCancelled bool,
) ([]models.Appointment, error) {

	q := r.db.WithContext(ctx).
		Where(
			"provider_id = ? AND start_time >= ? AND start_time < ?",
			providerID, start, end,
		)

	if !includeCancelled {
		q = q.Where("status <> ?", string(domain.StatusCancelled))
	}

	apps := []models.Appointment{}
	if err := q.
		Order("start_time ASC").
		Find(&apps).Error; err != nil {
		return nil, httperr.Store("list appointments", err)
	}

	return apps, nil
}

func (r *AppointmentGormRepository) ListAppointmentsForPatient(
	ctx context.Context,
	patientID string,
) ([]models.Appointment, error) {

	apps := []models.Appointment{}
	if err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("start_time ASC").
		Find(&apps).Error; err != nil {
		return nil, httperr.Store("list patient appointments", err)
	}

	return apps, nil
}

// Compile-time check
var _ domain.Ledger = (*AppointmentGormRepository)(nil)
