package database

import (
	"github.com/clubdeck/booking-platform/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Club{},
		&models.Event{},
		&models.PriceTier{},
		&models.Booking{},
		&models.Payment{},
		&models.AuditLog{},
	); err != nil {
		logrus.WithError(err).Fatal("failed to auto-migrate")
	}

	// Partial unique index: one live booking per user per event.
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_active
		ON bookings (event_id, user_id)
		WHERE status NOT IN ('cancelled', 'completed')
	`)

	return db
}
