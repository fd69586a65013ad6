package services

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gifting-circle/internal/models"
)

// setupTestDB opens a named in-memory database shared across the
// connections gorm pools for one test, isolated between tests.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Gift{},
		&models.Referral{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

// createTestUser inserts a user with sane defaults
func createTestUser(t *testing.T, db *gorm.DB, role models.UserRole, level models.UserLevel) *models.User {
	t.Helper()

	code, err := generateReferralCode()
	if err != nil {
		t.Fatalf("failed to generate referral code: %v", err)
	}

	user := &models.User{
		FullName:     "Test User",
		Email:        fmt.Sprintf("%s@example.com", code),
		PasswordHash: "x",
		Role:         role,
		Level:        level,
		ReferralCode: code,
		Status:       models.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}
