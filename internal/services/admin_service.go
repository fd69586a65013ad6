package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gifting-circle/internal/events"
	"gifting-circle/internal/models"
)

// AdminService handles admin-only queries and operations
type AdminService struct {
	db  *gorm.DB
	hub *events.Hub
}

// NewAdminService creates a new AdminService
func NewAdminService(db *gorm.DB, hub *events.Hub) *AdminService {
	return &AdminService{db: db, hub: hub}
}

// GetOverview returns the admin dashboard aggregate. Ratios are guarded so
// an empty system reports 0 rather than NaN.
func (s *AdminService) GetOverview(ctx context.Context) (*models.PlatformOverview, error) {
	overview := &models.PlatformOverview{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&overview.TotalUsers, s.db.WithContext(ctx).Model(&models.User{})},
		{&overview.ActiveUsers, s.db.WithContext(ctx).Model(&models.User{}).Where("status = ?", models.UserStatusActive)},
		{&overview.CompletedGifts, s.db.WithContext(ctx).Model(&models.Gift{}).Where("status = ?", models.GiftStatusCompleted)},
		{&overview.PendingGifts, s.db.WithContext(ctx).Model(&models.Gift{}).Where("status = ?", models.GiftStatusPending)},
		{&overview.SuccessfulReferrals, s.db.WithContext(ctx).Model(&models.Referral{}).Where("status = ?", models.ReferralStatusCompleted)},
	}

	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, wrapStoreError(err)
		}
	}

	totalGifts := overview.CompletedGifts + overview.PendingGifts
	if totalGifts > 0 {
		overview.GiftCompletionRate = float64(overview.CompletedGifts) / float64(totalGifts) * 100
	}
	overview.GrowthRatio = float64(overview.TotalUsers) / 100

	return overview, nil
}

// GetAllUsers returns a page of users, optionally filtered by name or email
func (s *AdminService) GetAllUsers(ctx context.Context, limit, offset int, search string) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("full_name LIKE ? OR email LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapStoreError(err)
	}

	var users []models.User
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, wrapStoreError(err)
	}

	return users, total, nil
}

// GetAllGifts returns a page of gifts with participants preloaded
func (s *AdminService) GetAllGifts(ctx context.Context, limit, offset int) ([]models.Gift, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Gift{}).Count(&total).Error; err != nil {
		return nil, 0, wrapStoreError(err)
	}

	var gifts []models.Gift
	err := s.db.WithContext(ctx).
		Preload("Gifter").
		Preload("Receiver").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&gifts).Error
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}

	return gifts, total, nil
}

// IsAdmin reports whether the user holds the admin role
func (s *AdminService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role = ?", userID, models.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreError(err)
	}
	return count > 0, nil
}

// PromoteUserLevel advances a user one step up the level ladder. This is the
// only code path that writes user.level; the progression evaluator reports
// progress but never promotes.
func (s *AdminService) PromoteUserLevel(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, wrapStoreError(err)
	}

	next, ok := user.Level.Next()
	if !ok {
		return nil, fmt.Errorf("user is already at the top level: %w", ErrInvalidInput)
	}

	// Guard on the current level so two concurrent promotions advance one
	// step total, not two
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND level = ?", userID, user.Level).
		Update("level", next)
	if res.Error != nil {
		return nil, wrapStoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("user level changed concurrently: %w", ErrConflict)
	}

	user.Level = next
	if s.hub != nil {
		s.hub.Publish(events.TableUsers)
	}

	log.Printf("User %s promoted to level %s", userID, next)
	return &user, nil
}
