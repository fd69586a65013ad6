package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gifting-circle/internal/models"
)

// UserService handles user-related business logic
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new UserService
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, wrapStoreError(err)
	}
	return &user, nil
}

// GetUserByReferralCode retrieves the user owning a referral code
func (s *UserService) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "referral_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid referral code: %w", ErrNotFound)
		}
		return nil, wrapStoreError(err)
	}
	return &user, nil
}

// GetUserGifts retrieves gifts where the user is gifter or receiver,
// newest first
func (s *UserService) GetUserGifts(ctx context.Context, userID uuid.UUID) ([]models.Gift, error) {
	var gifts []models.Gift
	err := s.db.WithContext(ctx).
		Where("gifter_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&gifts).Error
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return gifts, nil
}

// GetUserReferrals retrieves all referrals made by a user
func (s *UserService) GetUserReferrals(ctx context.Context, userID uuid.UUID) ([]models.Referral, error) {
	var referrals []models.Referral
	err := s.db.WithContext(ctx).
		Where("referrer_id = ?", userID).
		Preload("Referred").
		Order("created_at DESC").
		Find(&referrals).Error
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return referrals, nil
}
