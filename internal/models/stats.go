package models

// DefaultMaxFunders is the fixed number of concurrently active funder slots
const DefaultMaxFunders = 8

// LevelStats holds the system-wide view of a single level
type LevelStats struct {
	TotalUsers     int  `json:"total_users"`
	CompletedUsers int  `json:"completed_users"`
	IsReady        bool `json:"is_ready"`
}

// SystemStats is the derived aggregate recomputed from raw rows on every change
type SystemStats struct {
	Funders    int                      `json:"funders"`
	MaxFunders int                      `json:"max_funders"`
	LevelStats map[UserLevel]LevelStats `json:"level_stats"`
}

// UserProgress is the per-user view the dashboard renders
type UserProgress struct {
	Level             UserLevel          `json:"level"`
	CurrentProgress   int                `json:"current_progress"`
	GiftsReceived     int                `json:"gifts_received"`
	CompletionPercent float64            `json:"completion_percent"`
	Unlocked          map[UserLevel]bool `json:"unlocked"`
	Stats             SystemStats        `json:"stats"`
}

// PlatformOverview is the admin dashboard aggregate
type PlatformOverview struct {
	TotalUsers          int64   `json:"total_users"`
	ActiveUsers         int64   `json:"active_users"`
	CompletedGifts      int64   `json:"completed_gifts"`
	PendingGifts        int64   `json:"pending_gifts"`
	SuccessfulReferrals int64   `json:"successful_referrals"`
	GiftCompletionRate  float64 `json:"gift_completion_rate"`
	GrowthRatio         float64 `json:"growth_ratio"`
}
