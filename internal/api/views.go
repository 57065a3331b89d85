package api

import "time"

// StartSessionRequest is the payload for POST /v1/sessions.
type StartSessionRequest struct {
	RoutineID *string `json:"routine_id,omitempty"`
}

// SessionView exposes a workout session.
type SessionView struct {
	SessionID string     `json:"session_id"`
	UserID    string     `json:"user_id"`
	RoutineID *string    `json:"routine_id,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Finished  bool       `json:"finished"`
}

// ListSessionsResponse packages list results.
type ListSessionsResponse struct {
	Items      []SessionView `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// SetLogView exposes one recorded set.
type SetLogView struct {
	SetID      string    `json:"set_id"`
	SessionID  string    `json:"session_id"`
	ExerciseID string    `json:"exercise_id"`
	SetNumber  int       `json:"set_number"`
	WeightKg   float64   `json:"weight_kg"`
	Reps       int       `json:"reps"`
	RPE        *int      `json:"rpe,omitempty"`
	LoggedAt   time.Time `json:"logged_at"`
}

// LogSetRequest is the payload for POST /v1/sessions/{id}/logs.
type LogSetRequest struct {
	ExerciseID string  `json:"exercise_id"`
	SetNumber  int     `json:"set_number"`
	WeightKg   float64 `json:"weight_kg"`
	Reps       int     `json:"reps"`
	RPE        *int    `json:"rpe,omitempty"`
}

// SessionExerciseView groups the sets of one exercise in a session.
type SessionExerciseView struct {
	ExerciseID   string       `json:"exercise_id"`
	ExerciseName string       `json:"exercise_name"`
	Sets         []SetLogView `json:"sets"`
}

// SessionDetailResponse is the full breakdown of one session.
type SessionDetailResponse struct {
	SessionView
	TotalVolumeKg float64               `json:"total_volume_kg"`
	DurationMin   *float64              `json:"duration_min,omitempty"`
	Exercises     []SessionExerciseView `json:"exercises"`
}

// LevelUpView reports a level change and its coin bonus.
type LevelUpView struct {
	NewLevel    int `json:"new_level"`
	CoinsEarned int `json:"coins_earned"`
}

// CompleteSessionResponse is the consolidated completion result.
type CompleteSessionResponse struct {
	SessionID       string       `json:"session_id"`
	XPGained        int          `json:"xp_gained"`
	TotalXP         int          `json:"total_xp"`
	Level           int          `json:"level"`
	CurrentStreak   int          `json:"current_streak"`
	LongestStreak   int          `json:"longest_streak"`
	StreakMilestone bool         `json:"streak_milestone"`
	LevelUp         *LevelUpView `json:"level_up,omitempty"`
}

// AchievementView exposes one achievement with the caller's unlock state.
type AchievementView struct {
	AchievementID string     `json:"achievement_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Icon          string     `json:"icon"`
	Category      string     `json:"category"`
	Requirement   int        `json:"requirement"`
	XPReward      int        `json:"xp_reward"`
	CoinsReward   int        `json:"coins_reward"`
	Unlocked      bool       `json:"unlocked"`
	UnlockedAt    *time.Time `json:"unlocked_at,omitempty"`
}

// AchievementListResponse packages the catalog listing.
type AchievementListResponse struct {
	Items []AchievementView `json:"items"`
}

// UnlockedAchievementView reports one newly granted achievement.
type UnlockedAchievementView struct {
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	XPReward      int    `json:"xp_reward"`
	CoinsReward   int    `json:"coins_reward"`
}

// EvaluateAchievementsResponse lists the unlocks from one evaluation run.
type EvaluateAchievementsResponse struct {
	Unlocked []UnlockedAchievementView `json:"unlocked"`
}

// MuscleGroupVolumeView is the volume for one muscle group.
type MuscleGroupVolumeView struct {
	MuscleGroup string  `json:"muscle_group"`
	VolumeKg    float64 `json:"volume_kg"`
}

// MuscleGroupVolumeResponse packages the volume breakdown.
type MuscleGroupVolumeResponse struct {
	Items []MuscleGroupVolumeView `json:"items"`
}

// ProgressionPointView is the daily best estimated 1RM.
type ProgressionPointView struct {
	Date         string  `json:"date"`
	Estimated1RM float64 `json:"estimated_1rm"`
}

// ProgressionResponse charts one exercise over time.
type ProgressionResponse struct {
	ExerciseID string                 `json:"exercise_id"`
	Points     []ProgressionPointView `json:"points"`
}

// PersonalRecordView is the best lift for one exercise.
type PersonalRecordView struct {
	ExerciseID   string  `json:"exercise_id"`
	ExerciseName string  `json:"exercise_name"`
	MuscleGroup  string  `json:"muscle_group"`
	Estimated1RM float64 `json:"estimated_1rm"`
	WeightKg     float64 `json:"weight_kg"`
	Reps         int     `json:"reps"`
	Date         string  `json:"date"`
}

// PersonalRecordsResponse packages the record list.
type PersonalRecordsResponse struct {
	Items []PersonalRecordView `json:"items"`
}

// HeatmapEntryView counts sessions for one calendar day.
type HeatmapEntryView struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// HeatmapResponse packages the per-day counts.
type HeatmapResponse struct {
	Items []HeatmapEntryView `json:"items"`
}

// WeekVolumeView is the volume for one ISO week.
type WeekVolumeView struct {
	Week     string  `json:"week"`
	VolumeKg float64 `json:"volume_kg"`
}

// WeeklyVolumeResponse packages the weekly totals.
type WeeklyVolumeResponse struct {
	Items []WeekVolumeView `json:"items"`
}

// SummaryResponse is the dashboard overview.
type SummaryResponse struct {
	TotalSessions    int     `json:"total_sessions"`
	RecentSessions   int     `json:"recent_sessions"`
	TotalVolumeKg    float64 `json:"total_volume_kg"`
	FavoriteExercise string  `json:"favorite_exercise"`
}

// ProfileResponse is the progression view of the caller.
type ProfileResponse struct {
	UserID             string     `json:"user_id"`
	Username           string     `json:"username"`
	XP                 int        `json:"xp"`
	Level              int        `json:"level"`
	Coins              int        `json:"coins"`
	ProgressPercentage float64    `json:"progress_percentage"`
	XPForNextLevel     int        `json:"xp_for_next_level"`
	CurrentStreak      int        `json:"current_streak"`
	LongestStreak      int        `json:"longest_streak"`
	LastWorkoutDate    *time.Time `json:"last_workout_date,omitempty"`
	AvatarIcon         string     `json:"avatar_icon"`
	UsernameColor      string     `json:"username_color"`
	Verified           bool       `json:"verified"`
	Title              *string    `json:"title,omitempty"`
	AchievementsCount  int        `json:"achievements_count"`
}

// ShopItemView exposes a shop item with the caller's eligibility.
type ShopItemView struct {
	ItemID        string `json:"item_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	ItemType      string `json:"item_type"`
	Value         string `json:"value"`
	Price         int    `json:"price"`
	RequiredLevel int    `json:"required_level"`
	CanBuy        bool   `json:"can_buy"`
	Locked        bool   `json:"locked"`
}

// ShopListResponse packages the shop listing.
type ShopListResponse struct {
	Items []ShopItemView `json:"items"`
}

// PurchaseResponse reports a completed purchase.
type PurchaseResponse struct {
	ItemID         string `json:"item_id"`
	Name           string `json:"name"`
	RemainingCoins int    `json:"remaining_coins"`
}
