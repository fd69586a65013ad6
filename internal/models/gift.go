package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GiftStatus represents the state of a gift
type GiftStatus string

const (
	GiftStatusPending   GiftStatus = "pending"
	GiftStatusCompleted GiftStatus = "completed"
)

// GiftsPerLevel is the number of completed gifts a receiver needs at a level
// before the next promotion within that level
const GiftsPerLevel = 8

// Gift represents a tracked donation from one user to another, tagged with
// the level it counts toward. Only completed gifts count for progression.
type Gift struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	GifterID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"gifter_id"`
	Gifter     *User           `gorm:"foreignKey:GifterID" json:"gifter,omitempty"`
	ReceiverID uuid.UUID       `gorm:"type:uuid;not null;index" json:"receiver_id"`
	Receiver   *User           `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	Level      UserLevel       `gorm:"size:16;not null;index" json:"level"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Status     GiftStatus      `gorm:"size:16;default:completed;index" json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName specifies the table name for Gift model
func (Gift) TableName() string {
	return "gifts"
}

// BeforeCreate assigns an id when the caller did not set one
func (g *Gift) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
