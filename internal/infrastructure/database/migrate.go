package database

import (
	"github.com/marque-api/internal/domain"
	"gorm.io/gorm"
)

// Migrate creates or updates the tables owned by this core. Each market store gets the
// same schema; rows never reference another market's store.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.User{}, &domain.Admin{}, &domain.PhoneVerification{})
}
