package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gifting-circle/internal/events"
	"gifting-circle/internal/models"
)

func TestSubmitDonationRejectsBadAmount(t *testing.T) {
	db := setupTestDB(t)
	service := NewDonationService(db, nil, models.DefaultMaxFunders, 0)

	donor := createTestUser(t, db, models.RoleGifter, models.LevelGifter)
	receiver := createTestUser(t, db, models.RoleReceiver, models.LevelGifter)

	for _, amount := range []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromInt(-5),
	} {
		_, err := service.SubmitDonation(context.Background(), donor.ID, receiver.ID, models.LevelGifter, amount)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("amount=%s: expected ErrInvalidInput, got %v", amount, err)
		}
	}

	var giftCount int64
	db.Model(&models.Gift{}).Count(&giftCount)
	if giftCount != 0 {
		t.Errorf("expected no gift rows after rejected donations, got %d", giftCount)
	}
}

func TestSubmitDonationRejectsUnknownLevel(t *testing.T) {
	db := setupTestDB(t)
	service := NewDonationService(db, nil, models.DefaultMaxFunders, 0)

	donor := createTestUser(t, db, models.RoleGifter, models.LevelGifter)
	receiver := createTestUser(t, db, models.RoleReceiver, models.LevelGifter)

	_, err := service.SubmitDonation(context.Background(), donor.ID, receiver.ID, models.UserLevel("legend"), decimal.NewFromInt(10))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown level, got %v", err)
	}
}

func TestSubmitDonationUnknownParticipants(t *testing.T) {
	db := setupTestDB(t)
	service := NewDonationService(db, nil, models.DefaultMaxFunders, 0)

	donor := createTestUser(t, db, models.RoleGifter, models.LevelGifter)
	ghost := createTestUser(t, db, models.RoleReceiver, models.LevelGifter)
	db.Delete(&models.User{}, "id = ?", ghost.ID)

	if _, err := service.SubmitDonation(context.Background(), ghost.ID, donor.ID, models.LevelGifter, decimal.NewFromInt(10)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing donor, got %v", err)
	}
	if _, err := service.SubmitDonation(context.Background(), donor.ID, ghost.ID, models.LevelGifter, decimal.NewFromInt(10)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing receiver, got %v", err)
	}
}

func TestSubmitDonationCapacityExceeded(t *testing.T) {
	db := setupTestDB(t)
	service := NewDonationService(db, nil, models.DefaultMaxFunders, 0)

	for i := 0; i < models.DefaultMaxFunders; i++ {
		createTestUser(t, db, models.RoleFunder, models.LevelGifter)
	}
	donor := createTestUser(t, db, models.RoleGifter, models.LevelGifter)
	receiver := createTestUser(t, db, models.RoleReceiver, models.LevelGifter)

	_, err := service.SubmitDonation(context.Background(), donor.ID, receiver.ID, models.LevelGifter, decimal.NewFromInt(10))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	// Refusal must be total: no gift row, no role change
	var giftCount int64
	db.Model(&models.Gift{}).Count(&giftCount)
	if giftCount != 0 {
		t.Errorf("expected no gift rows, got %d", giftCount)
	}

	var fresh models.User
	db.First(&fresh, "id = ?", donor.ID)
	if fresh.Role != models.RoleGifter {
		t.Errorf("donor role changed to %s on a refused donation", fresh.Role)
	}
}

func TestSubmitDonationPromotesGifter(t *testing.T) {
	db := setupTestDB(t)
	hub := events.NewHub(0)
	defer hub.Close()
	sub := hub.Subscribe(events.TableUsers)
	defer sub.Close()

	service := NewDonationService(db, hub, models.DefaultMaxFunders, 0)

	for i := 0; i < models.DefaultMaxFunders-1; i++ {
		createTestUser(t, db, models.RoleFunder, models.LevelGifter)
	}
	donor := createTestUser(t, db, models.RoleGifter, models.LevelGifter)
	receiver := createTestUser(t, db, models.RoleReceiver, models.LevelBeginner)

	gift, err := service.SubmitDonation(context.Background(), donor.ID, receiver.ID, models.LevelBeginner, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("SubmitDonation failed: %v", err)
	}

	if gift.Status != models.GiftStatusCompleted {
		t.Errorf("expected completed gift, got %s", gift.Status)
	}
	if gift.Level != models.LevelBeginner {
		t.Errorf("expected level beginner, got %s", gift.Level)
	}

	var fresh models.User
	db.First(&fresh, "id = ?", donor.ID)
	if fresh.Role != models.RoleFunder {
		t.Errorf("expected donor promoted to funder, got %s", fresh.Role)
	}

	var funders int64
	db.Model(&models.User{}).Where("role = ?", models.RoleFunder).Count(&funders)
	if funders != int64(models.DefaultMaxFunders) {
		t.Errorf("expected %d funders, got %d", models.DefaultMaxFunders, funders)
	}

	// Promotion must be announced on the users change feed
	select {
	case table := <-sub.C:
		if table != events.TableUsers {
			t.Errorf("expected users change signal, got %s", table)
		}
	case <-time.After(time.Second):
		t.Error("no users change signal after promotion")
	}
}

func TestSubmitDonationFunderIsNotRepromoted(t *testing.T) {
	db := setupTestDB(t)
	service := NewDonationService(db, nil, models.DefaultMaxFunders, 0)

	donor := createTestUser(t, db, models.RoleFunder, models.LevelGifter)
	receiver := createTestUser(t, db, models.RoleReceiver, models.LevelGifter)

	// Fill the cap with other funders; an existing funder may keep donating
	for i := 0; i < models.DefaultMaxFunders-1; i++ {
		createTestUser(t, db, models.RoleFunder, models.LevelGifter)
	}

	if _, err := service.SubmitDonation(context.Background(), donor.ID, receiver.ID, models.LevelGifter, decimal.NewFromInt(25)); err != nil {
		t.Fatalf("funder donation failed: %v", err)
	}

	var funders int64
	db.Model(&models.User{}).Where("role = ?", models.RoleFunder).Count(&funders)
	if funders != int64(models.DefaultMaxFunders) {
		t.Errorf("funder count changed to %d", funders)
	}
}

func TestConcurrentDonationsNeverExceedCap(t *testing.T) {
	db := setupTestDB(t)
	service := NewDonationService(db, nil, models.DefaultMaxFunders, 0)

	// One slot left, several gifters racing for it
	for i := 0; i < models.DefaultMaxFunders-1; i++ {
		createTestUser(t, db, models.RoleFunder, models.LevelGifter)
	}
	receiver := createTestUser(t, db, models.RoleReceiver, models.LevelGifter)

	const racers = 4
	donors := make([]*models.User, racers)
	for i := range donors {
		donors[i] = createTestUser(t, db, models.RoleGifter, models.LevelGifter)
	}

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.SubmitDonation(context.Background(), donors[i].ID, receiver.ID, models.LevelGifter, decimal.NewFromInt(10))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrConflict), errors.Is(err, ErrCapacityExceeded):
			// expected for the losers
		default:
			t.Errorf("racer %d: unexpected error %v", i, err)
		}
	}

	if succeeded != 1 {
		t.Errorf("expected exactly 1 admitted donation, got %d", succeeded)
	}

	var funders int64
	db.Model(&models.User{}).Where("role = ?", models.RoleFunder).Count(&funders)
	if funders != int64(models.DefaultMaxFunders) {
		t.Errorf("capacity invariant violated: %d funders with cap %d", funders, models.DefaultMaxFunders)
	}

	var giftCount int64
	db.Model(&models.Gift{}).Count(&giftCount)
	if giftCount != 1 {
		t.Errorf("expected 1 gift row, got %d", giftCount)
	}
}

func TestLockFunderAdmissionByDialect(t *testing.T) {
	// sqlite already queues writers, so no lock statement is issued
	db := setupTestDB(t)
	if err := lockFunderAdmission(db); err != nil {
		t.Fatalf("expected no-op on sqlite, got %v", err)
	}

	// On postgres the advisory lock must be taken before the promotion
	// UPDATE. A dry-run session builds the statement without a server.
	pg, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=gifting dbname=gifting"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open dry-run session: %v", err)
	}
	if err := lockFunderAdmission(pg); err != nil {
		t.Fatalf("advisory lock statement failed: %v", err)
	}
}
