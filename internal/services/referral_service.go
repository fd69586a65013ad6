package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gifting-circle/internal/models"
)

// ReferralService handles referral codes and referral statistics
type ReferralService struct {
	db            *gorm.DB
	inviteBaseURL string
}

// NewReferralService creates a new ReferralService
func NewReferralService(db *gorm.DB, inviteBaseURL string) *ReferralService {
	return &ReferralService{db: db, inviteBaseURL: inviteBaseURL}
}

// ReferralSummary aggregates a user's referral activity
type ReferralSummary struct {
	TotalReferrals     int64 `json:"total_referrals"`
	CompletedReferrals int64 `json:"completed_referrals"`
	PendingReferrals   int64 `json:"pending_referrals"`
}

// GetReferralCode returns the user's referral code. Codes are assigned at
// sign-up and never change.
func (s *ReferralService) GetReferralCode(ctx context.Context, userID uuid.UUID) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("referral_code").First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", fmt.Errorf("user: %w", ErrNotFound)
		}
		return "", wrapStoreError(err)
	}
	return user.ReferralCode, nil
}

// BuildInviteLink returns the shareable sign-up link for a referral code
func (s *ReferralService) BuildInviteLink(code string) string {
	return fmt.Sprintf("%s/auth/sign-up?code=%s", s.inviteBaseURL, code)
}

// GetReferralSummary returns aggregated referral counts for a user
func (s *ReferralService) GetReferralSummary(ctx context.Context, userID uuid.UUID) (*ReferralSummary, error) {
	summary := &ReferralSummary{}

	if err := s.db.WithContext(ctx).Model(&models.Referral{}).
		Where("referrer_id = ?", userID).
		Count(&summary.TotalReferrals).Error; err != nil {
		return nil, wrapStoreError(err)
	}

	if err := s.db.WithContext(ctx).Model(&models.Referral{}).
		Where("referrer_id = ? AND status = ?", userID, models.ReferralStatusCompleted).
		Count(&summary.CompletedReferrals).Error; err != nil {
		return nil, wrapStoreError(err)
	}

	summary.PendingReferrals = summary.TotalReferrals - summary.CompletedReferrals
	return summary, nil
}
