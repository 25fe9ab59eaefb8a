package db

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// SlotIndex is the partial unique index that backs the one-active-booking
// per (provider, start) rule.
const SlotIndex = "ux_appointments_slot"

func NewDB(cfg *config.Config, log *zap.Logger) *gorm.DB {
	db, err := Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			log.Fatal("failed to migrate", zap.Error(err))
		}
	}

	return db
}

func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&models.Provider{},
		&models.AvailabilityConfig{},
		&models.Appointment{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	return db.Exec(`
        CREATE UNIQUE INDEX IF NOT EXISTS ` + SlotIndex + `
        ON appointments (provider_id, start_time)
        WHERE status <> 'cancelled'
    `).Error
}
