package repositories

import (
	"github.com/anonto42/soundscape/backend/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the relational schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Message{},
		&models.Notification{},
	)
}
