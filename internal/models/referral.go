package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferralStatus represents the state of a referral
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusCompleted ReferralStatus = "completed"
)

// Referral represents a referral relationship between users, created at
// sign-up when the referred user presents the referrer's code
type Referral struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ReferrerID uuid.UUID      `gorm:"type:uuid;not null;index" json:"referrer_id"`
	Referrer   *User          `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	ReferredID *uuid.UUID     `gorm:"type:uuid;index" json:"referred_id,omitempty"`
	Referred   *User          `gorm:"foreignKey:ReferredID" json:"referred,omitempty"`
	Status     ReferralStatus `gorm:"size:16;default:pending;index" json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TableName specifies the table name for Referral model
func (Referral) TableName() string {
	return "referrals"
}

// BeforeCreate assigns an id when the caller did not set one
func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
