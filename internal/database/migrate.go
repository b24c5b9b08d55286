package database

import (
	"github.com/FrogonXO/shopify-student-verify/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Order{},
		&domain.PendingVerification{},
		&domain.VerifiedStudent{},
	)
}
