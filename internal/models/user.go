package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole represents the role a user currently holds
type UserRole string

const (
	RoleGifter   UserRole = "gifter"
	RoleReceiver UserRole = "receiver"
	RoleFunder   UserRole = "funder"
	RoleAdmin    UserRole = "admin"
)

// UserLevel represents a progression tier. Levels are totally ordered.
type UserLevel string

const (
	LevelGifter     UserLevel = "gifter"
	LevelBeginner   UserLevel = "beginner"
	LevelApprentice UserLevel = "apprentice"
	LevelAdvanced   UserLevel = "advanced"
	LevelTeacher    UserLevel = "teacher"
	LevelMaster     UserLevel = "master"
)

// Levels lists all progression tiers in ascending order
var Levels = []UserLevel{
	LevelGifter,
	LevelBeginner,
	LevelApprentice,
	LevelAdvanced,
	LevelTeacher,
	LevelMaster,
}

var levelOrder = map[UserLevel]int{
	LevelGifter:     0,
	LevelBeginner:   1,
	LevelApprentice: 2,
	LevelAdvanced:   3,
	LevelTeacher:    4,
	LevelMaster:     5,
}

// Order returns the position of the level in the progression, or -1 for an unknown level
func (l UserLevel) Order() int {
	order, ok := levelOrder[l]
	if !ok {
		return -1
	}
	return order
}

// Valid reports whether the level is one of the known tiers
func (l UserLevel) Valid() bool {
	_, ok := levelOrder[l]
	return ok
}

// Next returns the level one step up, or false at the top of the ladder
func (l UserLevel) Next() (UserLevel, bool) {
	order := l.Order()
	if order < 0 || order >= len(Levels)-1 {
		return l, false
	}
	return Levels[order+1], true
}

// User statuses
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User represents a member of the gifting circle
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FullName     string     `gorm:"size:100;not null" json:"full_name"`
	Email        string     `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string     `gorm:"size:191;not null" json:"-"`
	Role         UserRole   `gorm:"size:16;default:gifter;index" json:"role"`
	Level        UserLevel  `gorm:"size:16;default:gifter;index" json:"level"`
	ReferralCode string     `gorm:"uniqueIndex;size:20;not null" json:"referral_code"`
	ReferredBy   *uuid.UUID `gorm:"type:uuid;index" json:"referred_by,omitempty"`
	Referrer     *User      `gorm:"foreignKey:ReferredBy" json:"referrer,omitempty"`
	Status       string     `gorm:"size:16;default:active" json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an id when the caller did not set one
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
