package services

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gifting-circle/internal/models"
)

func completedGift(receiverID uuid.UUID, level models.UserLevel) models.Gift {
	return models.Gift{
		ID:         uuid.New(),
		GifterID:   uuid.New(),
		ReceiverID: receiverID,
		Level:      level,
		Amount:     decimal.NewFromInt(10),
		Status:     models.GiftStatusCompleted,
	}
}

func nGifts(n int, receiverID uuid.UUID, level models.UserLevel) []models.Gift {
	gifts := make([]models.Gift, 0, n)
	for i := 0; i < n; i++ {
		gifts = append(gifts, completedGift(receiverID, level))
	}
	return gifts
}

func TestCurrentLevelProgressWraps(t *testing.T) {
	user := models.User{ID: uuid.New(), Level: models.LevelBeginner}

	for received := 0; received <= 20; received++ {
		gifts := nGifts(received, user.ID, models.LevelBeginner)
		got := CurrentLevelProgress(user, gifts)

		if got != received%models.GiftsPerLevel {
			t.Errorf("received=%d: expected progress %d, got %d", received, received%models.GiftsPerLevel, got)
		}
		if got < 0 || got > 7 {
			t.Errorf("received=%d: progress %d out of [0,7]", received, got)
		}
	}
}

func TestCurrentLevelProgressIgnoresOtherLevelsAndPending(t *testing.T) {
	user := models.User{ID: uuid.New(), Level: models.LevelBeginner}

	gifts := nGifts(3, user.ID, models.LevelBeginner)
	gifts = append(gifts, nGifts(5, user.ID, models.LevelApprentice)...)

	pending := completedGift(user.ID, models.LevelBeginner)
	pending.Status = models.GiftStatusPending
	gifts = append(gifts, pending)

	if got := CurrentLevelProgress(user, gifts); got != 3 {
		t.Errorf("expected progress 3, got %d", got)
	}
}

func TestProgressionScenarioBeginnerWithThreeGifts(t *testing.T) {
	user := models.User{ID: uuid.New(), Level: models.LevelBeginner}
	gifts := nGifts(3, user.ID, models.LevelBeginner)

	if got := CurrentLevelProgress(user, gifts); got != 3 {
		t.Errorf("expected currentLevelProgress 3, got %d", got)
	}
	if !IsUnlocked(models.LevelGifter, user.Level) {
		t.Error("gifter level should be unlocked for a beginner")
	}
	if IsUnlocked(models.LevelApprentice, user.Level) {
		t.Error("apprentice level should be locked for a beginner")
	}
}

func TestComputeSystemStats(t *testing.T) {
	receiver := uuid.New()
	other := uuid.New()

	users := []models.User{
		{ID: receiver, Role: models.RoleFunder, Level: models.LevelBeginner},
		{ID: other, Role: models.RoleGifter, Level: models.LevelBeginner},
		{ID: uuid.New(), Role: models.RoleGifter, Level: models.LevelGifter},
	}

	// receiver completed beginner (9 >= 8, raw count not modulo); other did not
	gifts := nGifts(9, receiver, models.LevelBeginner)
	gifts = append(gifts, nGifts(7, other, models.LevelBeginner)...)

	stats := ComputeSystemStats(users, gifts, models.DefaultMaxFunders)

	if stats.Funders != 1 {
		t.Errorf("expected 1 funder, got %d", stats.Funders)
	}
	if stats.MaxFunders != 8 {
		t.Errorf("expected maxFunders 8, got %d", stats.MaxFunders)
	}

	beginner := stats.LevelStats[models.LevelBeginner]
	if beginner.TotalUsers != 2 {
		t.Errorf("expected 2 beginner users, got %d", beginner.TotalUsers)
	}
	if beginner.CompletedUsers != 1 {
		t.Errorf("expected 1 completed beginner, got %d", beginner.CompletedUsers)
	}
	if beginner.IsReady {
		t.Error("isReady is reserved and must be false")
	}

	// Every level present in the output
	for _, level := range models.Levels {
		if _, ok := stats.LevelStats[level]; !ok {
			t.Errorf("level %s missing from stats", level)
		}
	}
}

func TestComputeSystemStatsDeterministic(t *testing.T) {
	receiver := uuid.New()
	users := []models.User{
		{ID: receiver, Role: models.RoleFunder, Level: models.LevelBeginner},
		{ID: uuid.New(), Role: models.RoleGifter, Level: models.LevelApprentice},
	}
	gifts := nGifts(10, receiver, models.LevelBeginner)

	first := ComputeSystemStats(users, gifts, models.DefaultMaxFunders)
	second := ComputeSystemStats(users, gifts, models.DefaultMaxFunders)
	if !reflect.DeepEqual(first, second) {
		t.Error("evaluator is not idempotent on identical input")
	}

	// Reverse row order; output must not change
	reversedUsers := []models.User{users[1], users[0]}
	reversedGifts := make([]models.Gift, len(gifts))
	for i, g := range gifts {
		reversedGifts[len(gifts)-1-i] = g
	}
	reversed := ComputeSystemStats(reversedUsers, reversedGifts, models.DefaultMaxFunders)
	if !reflect.DeepEqual(first, reversed) {
		t.Error("evaluator output depends on iteration order")
	}
}

func TestProgressMonotonicExceptAtWrap(t *testing.T) {
	user := models.User{ID: uuid.New(), Level: models.LevelAdvanced}

	var gifts []models.Gift
	prev := CurrentLevelProgress(user, gifts)
	for i := 0; i < 24; i++ {
		gifts = append(gifts, completedGift(user.ID, user.Level))
		got := CurrentLevelProgress(user, gifts)
		if got < prev && got != 0 {
			t.Errorf("after gift %d: progress dropped %d -> %d off the wrap boundary", i+1, prev, got)
		}
		prev = got
	}
}

func TestZeroGiftsZeroDenominators(t *testing.T) {
	user := models.User{ID: uuid.New(), Level: models.LevelGifter}

	progress := ComputeProgress(user, []models.User{user}, nil, models.DefaultMaxFunders)
	if progress.CompletionPercent != 0 {
		t.Errorf("expected completion percent 0 with no gifts, got %f", progress.CompletionPercent)
	}
	if progress.CurrentProgress != 0 {
		t.Errorf("expected progress 0 with no gifts, got %d", progress.CurrentProgress)
	}

	stats := ComputeSystemStats(nil, nil, models.DefaultMaxFunders)
	if stats.Funders != 0 {
		t.Errorf("expected 0 funders on empty system, got %d", stats.Funders)
	}
}

func TestComputeProgressUnlockedLevels(t *testing.T) {
	user := models.User{ID: uuid.New(), Level: models.LevelApprentice}
	progress := ComputeProgress(user, []models.User{user}, nil, models.DefaultMaxFunders)

	expected := map[models.UserLevel]bool{
		models.LevelGifter:     true,
		models.LevelBeginner:   true,
		models.LevelApprentice: true,
		models.LevelAdvanced:   false,
		models.LevelTeacher:    false,
		models.LevelMaster:     false,
	}
	if !reflect.DeepEqual(progress.Unlocked, expected) {
		t.Errorf("unexpected unlocked map: %v", progress.Unlocked)
	}
}

func TestLevelOrderAndNext(t *testing.T) {
	if models.LevelGifter.Order() != 0 || models.LevelMaster.Order() != 5 {
		t.Error("level order endpoints wrong")
	}
	if models.UserLevel("bogus").Valid() {
		t.Error("unknown level reported valid")
	}

	next, ok := models.LevelTeacher.Next()
	if !ok || next != models.LevelMaster {
		t.Errorf("expected teacher -> master, got %s (ok=%v)", next, ok)
	}
	if _, ok := models.LevelMaster.Next(); ok {
		t.Error("master must have no next level")
	}
}
