package db

import (
	"screenplay-collab/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}

// Seed seeds the database with a development account
func Seed(db *gorm.DB, log zerolog.Logger) error {
	const email = "writer@example.com"

	var count int64
	if err := db.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info().Str("email", email).Msg("seed user already exists")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &domain.User{
		Name:         "Test Writer",
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.UserRoleWriter,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		return err
	}

	log.Info().Str("email", email).Msg("created seed user")
	return nil
}
