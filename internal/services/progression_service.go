package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gifting-circle/internal/models"
)

// ProgressionService computes per-user progress and system-wide level
// statistics from raw rows. The computation itself is a set of pure
// functions: same users and gifts in, same view out, regardless of row
// order, and nothing here ever writes user.level.
type ProgressionService struct {
	db         *gorm.DB
	maxFunders int
	timeout    time.Duration
}

// NewProgressionService creates a new ProgressionService
func NewProgressionService(db *gorm.DB, maxFunders int, timeout time.Duration) *ProgressionService {
	if maxFunders <= 0 {
		maxFunders = models.DefaultMaxFunders
	}
	return &ProgressionService{db: db, maxFunders: maxFunders, timeout: timeout}
}

// GiftsReceivedAtLevel counts completed gifts to a receiver tagged with a level
func GiftsReceivedAtLevel(gifts []models.Gift, receiverID uuid.UUID, level models.UserLevel) int {
	count := 0
	for _, g := range gifts {
		if g.Status != models.GiftStatusCompleted {
			continue
		}
		if g.ReceiverID == receiverID && g.Level == level {
			count++
		}
	}
	return count
}

// GiftsReceived counts all completed gifts to a receiver across levels
func GiftsReceived(gifts []models.Gift, receiverID uuid.UUID) int {
	count := 0
	for _, g := range gifts {
		if g.Status == models.GiftStatusCompleted && g.ReceiverID == receiverID {
			count++
		}
	}
	return count
}

// CurrentLevelProgress returns the count toward the next promotion within the
// user's current level. It wraps: 16 gifts at a level shows 0/8 again.
func CurrentLevelProgress(user models.User, gifts []models.Gift) int {
	return GiftsReceivedAtLevel(gifts, user.ID, user.Level) % models.GiftsPerLevel
}

// IsUnlocked reports whether a level is unlocked for display for a user at
// the given current level
func IsUnlocked(level, current models.UserLevel) bool {
	return level.Order() <= current.Order()
}

// ComputeSystemStats builds the system-wide aggregate from raw rows
func ComputeSystemStats(users []models.User, gifts []models.Gift, maxFunders int) models.SystemStats {
	stats := models.SystemStats{
		MaxFunders: maxFunders,
		LevelStats: make(map[models.UserLevel]models.LevelStats, len(models.Levels)),
	}

	levelCounts := make(map[models.UserLevel]int)
	for _, u := range users {
		if u.Role == models.RoleFunder {
			stats.Funders++
		}
		levelCounts[u.Level]++
	}

	// Completed users per level: distinct receivers with >= 8 completed
	// gifts at that level. The threshold uses the raw count, not modulo.
	received := make(map[uuid.UUID]map[models.UserLevel]int)
	for _, g := range gifts {
		if g.Status != models.GiftStatusCompleted {
			continue
		}
		byLevel, ok := received[g.ReceiverID]
		if !ok {
			byLevel = make(map[models.UserLevel]int)
			received[g.ReceiverID] = byLevel
		}
		byLevel[g.Level]++
	}

	completedCounts := make(map[models.UserLevel]int)
	for _, byLevel := range received {
		for level, count := range byLevel {
			if count >= models.GiftsPerLevel {
				completedCounts[level]++
			}
		}
	}

	for _, level := range models.Levels {
		stats.LevelStats[level] = models.LevelStats{
			TotalUsers:     levelCounts[level],
			CompletedUsers: completedCounts[level],
			IsReady:        false,
		}
	}

	return stats
}

// ComputeProgress builds the full dashboard view for one user
func ComputeProgress(user models.User, users []models.User, gifts []models.Gift, maxFunders int) models.UserProgress {
	giftsReceived := GiftsReceived(gifts, user.ID)

	unlocked := make(map[models.UserLevel]bool, len(models.Levels))
	for _, level := range models.Levels {
		unlocked[level] = IsUnlocked(level, user.Level)
	}

	return models.UserProgress{
		Level:             user.Level,
		CurrentProgress:   CurrentLevelProgress(user, gifts),
		GiftsReceived:     giftsReceived,
		CompletionPercent: completionPercent(giftsReceived),
		Unlocked:          unlocked,
		Stats:             ComputeSystemStats(users, gifts, maxFunders),
	}
}

// completionPercent guards the zero case so an empty system renders 0, not NaN
func completionPercent(giftsReceived int) float64 {
	if giftsReceived <= 0 {
		return 0
	}
	return float64(giftsReceived) / float64(models.GiftsPerLevel) * 100
}

// GetUserProgress loads raw rows and evaluates the user's progress view
func (s *ProgressionService) GetUserProgress(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, wrapStoreError(err)
	}

	users, gifts, err := s.loadRows(ctx)
	if err != nil {
		return nil, err
	}

	progress := ComputeProgress(user, users, gifts, s.maxFunders)
	return &progress, nil
}

// GetSystemStats loads raw rows and evaluates the system-wide aggregate
func (s *ProgressionService) GetSystemStats(ctx context.Context) (*models.SystemStats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	users, gifts, err := s.loadRows(ctx)
	if err != nil {
		return nil, err
	}

	stats := ComputeSystemStats(users, gifts, s.maxFunders)
	return &stats, nil
}

func (s *ProgressionService) loadRows(ctx context.Context) ([]models.User, []models.Gift, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, nil, wrapStoreError(err)
	}

	var gifts []models.Gift
	if err := s.db.WithContext(ctx).Where("status = ?", models.GiftStatusCompleted).Find(&gifts).Error; err != nil {
		return nil, nil, wrapStoreError(err)
	}

	return users, gifts, nil
}

func (s *ProgressionService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// wrapStoreError maps an expired or cancelled context onto the timeout
// failure kind so an abandoned request never surfaces as a server error
func wrapStoreError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout
	}
	return err
}
