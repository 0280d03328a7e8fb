package database

import (
	"github.com/eastatwest/restaurant-app/models"
	"github.com/eastatwest/restaurant-app/utils"
	"gorm.io/gorm"
)

// Migrate creates or updates the reservation, cancellation and outbox tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Reservation{},
		&models.Cancellation{},
		&models.Notification{},
	); err != nil {
		return err
	}

	// the dispatcher scans queued rows by due time
	if !db.Migrator().HasIndex(&models.Notification{}, "idx_notifications_due") {
		if err := db.Exec("CREATE INDEX idx_notifications_due ON notifications (status, next_attempt_at)").Error; err != nil {
			utils.ErrorLogger.Printf("Error creating outbox index: %v", err)
		}
	}

	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

// MigrateOutbox prepares a local database that only holds the outbox.
func MigrateOutbox(db *gorm.DB) error {
	return db.AutoMigrate(&models.Notification{})
}
