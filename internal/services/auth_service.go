package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gifting-circle/internal/events"
	"gifting-circle/internal/models"
)

const referralCodeLength = 8

// AuthService handles sign-up and sign-in business logic
type AuthService struct {
	db  *gorm.DB
	hub *events.Hub
}

// NewAuthService creates a new AuthService
func NewAuthService(db *gorm.DB, hub *events.Hub) *AuthService {
	return &AuthService{db: db, hub: hub}
}

// SignUp registers a new user. The referral code must belong to an existing
// user; a miss fails the whole sign-up and writes nothing. The new account
// starts as an active gifter at the gifter level with a fresh referral code,
// and the referral edge is recorded completed in the same transaction.
func (s *AuthService) SignUp(ctx context.Context, fullName, email, password, referralCode string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	referralCode = strings.TrimSpace(referralCode)

	if fullName == "" || email == "" || password == "" || referralCode == "" {
		return nil, fmt.Errorf("all fields are required: %w", ErrInvalidInput)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters: %w", ErrInvalidInput)
	}

	var referrer models.User
	if err := s.db.WithContext(ctx).First(&referrer, "referral_code = ?", referralCode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid referral code: %w", ErrNotFound)
		}
		return nil, wrapStoreError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := s.generateUniqueReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleGifter,
		Level:        models.LevelGifter,
		ReferralCode: code,
		ReferredBy:   &referrer.ID,
		Status:       models.UserStatusActive,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("email already registered: %w", ErrConflict)
		}

		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		referral := &models.Referral{
			ReferrerID: referrer.ID,
			ReferredID: &user.ID,
			Status:     models.ReferralStatusCompleted,
		}
		if err := tx.Create(referral).Error; err != nil {
			return fmt.Errorf("failed to create referral: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, wrapStoreError(err)
	}

	if s.hub != nil {
		s.hub.Publish(events.TableUsers)
		s.hub.Publish(events.TableReferrals)
	}

	log.Printf("User %s signed up, referred by %s", user.ID, referrer.ID)
	return user, nil
}

// SignIn authenticates a user by email and password
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", ErrInvalidInput)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
		}
		return nil, wrapStoreError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}

	return &user, nil
}

// generateUniqueReferralCode draws random codes until one is unused.
// Collisions are vanishingly rare; the bound keeps a broken RNG from looping.
func (s *AuthService) generateUniqueReferralCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("referral_code = ?", code).
			Count(&count).Error; err != nil {
			return "", wrapStoreError(err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique referral code")
}

// generateReferralCode returns a short base58 code, unambiguous for sharing
func generateReferralCode() (string, error) {
	b := make([]byte, referralCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	code := base58.Encode(b)
	if len(code) > referralCodeLength {
		code = code[:referralCodeLength]
	}
	return code, nil
}
