//go:build integration

package integration

import (
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/clubdeck/booking-platform/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5434"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "booking_platform_test"),
	)

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	// Drop and recreate tables for clean state
	for _, table := range []string{"payments", "audit_logs", "bookings", "price_tiers", "events", "clubs", "users"} {
		testDB.Exec("DROP TABLE IF EXISTS " + table + " CASCADE")
	}

	if err := testDB.AutoMigrate(
		&models.User{},
		&models.Club{},
		&models.Event{},
		&models.PriceTier{},
		&models.Booking{},
		&models.Payment{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("failed to auto-migrate test database: %v", err)
	}

	testDB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_active
		ON bookings (event_id, user_id)
		WHERE status NOT IN ('cancelled', 'completed')
	`)

	code := m.Run()

	for _, table := range []string{"payments", "audit_logs", "bookings", "price_tiers", "events", "clubs", "users"} {
		testDB.Exec("DROP TABLE IF EXISTS " + table + " CASCADE")
	}

	os.Exit(code)
}

func cleanTables() {
	testDB.Exec("DELETE FROM payments")
	testDB.Exec("DELETE FROM audit_logs")
	testDB.Exec("DELETE FROM bookings")
	testDB.Exec("DELETE FROM price_tiers")
	testDB.Exec("DELETE FROM events")
	testDB.Exec("DELETE FROM clubs")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
