package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gifting-circle/internal/models"
)

func TestGetUserByID(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db)

	user := createTestUser(t, db, models.RoleGifter, models.LevelGifter)

	found, err := service.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if found.ID != user.ID {
		t.Error("wrong user returned")
	}

	if _, err := service.GetUserByID(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUserByReferralCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db)

	user := createTestUser(t, db, models.RoleGifter, models.LevelGifter)

	found, err := service.GetUserByReferralCode(context.Background(), user.ReferralCode)
	if err != nil {
		t.Fatalf("GetUserByReferralCode failed: %v", err)
	}
	if found.ID != user.ID {
		t.Error("wrong user returned")
	}

	if _, err := service.GetUserByReferralCode(context.Background(), "NOSUCH"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUserGifts(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db)

	user := createTestUser(t, db, models.RoleGifter, models.LevelGifter)
	other := createTestUser(t, db, models.RoleReceiver, models.LevelGifter)
	bystander := createTestUser(t, db, models.RoleGifter, models.LevelGifter)

	db.Create(&models.Gift{GifterID: user.ID, ReceiverID: other.ID, Level: models.LevelGifter, Amount: decimal.NewFromInt(5), Status: models.GiftStatusCompleted})
	db.Create(&models.Gift{GifterID: other.ID, ReceiverID: user.ID, Level: models.LevelGifter, Amount: decimal.NewFromInt(7), Status: models.GiftStatusCompleted})
	db.Create(&models.Gift{GifterID: other.ID, ReceiverID: bystander.ID, Level: models.LevelGifter, Amount: decimal.NewFromInt(9), Status: models.GiftStatusCompleted})

	gifts, err := service.GetUserGifts(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserGifts failed: %v", err)
	}
	if len(gifts) != 2 {
		t.Errorf("expected 2 gifts (sent + received), got %d", len(gifts))
	}
	for _, g := range gifts {
		if g.GifterID != user.ID && g.ReceiverID != user.ID {
			t.Errorf("gift %s does not involve the user", g.ID)
		}
	}
}
