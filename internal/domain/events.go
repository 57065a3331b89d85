package domain

import "time"

// Event types recorded in the outbox alongside the transaction that caused
// them.
const (
	EventSessionCompleted    = "session.completed"
	EventAchievementUnlocked = "achievement.unlocked"
)

// SessionCompletedEvent is emitted when the completion engine seals a session
// and applies its rewards.
type SessionCompletedEvent struct {
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	XPGained      int       `json:"xp_gained"`
	TotalXP       int       `json:"total_xp"`
	Level         int       `json:"level"`
	LevelUp       bool      `json:"level_up"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	CompletedAt   time.Time `json:"completed_at"`
}

// AchievementUnlockedEvent is emitted once per (user, achievement) pair,
// ever.
type AchievementUnlockedEvent struct {
	UserID        string    `json:"user_id"`
	AchievementID string    `json:"achievement_id"`
	Name          string    `json:"name"`
	XPReward      int       `json:"xp_reward"`
	CoinsReward   int       `json:"coins_reward"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}
