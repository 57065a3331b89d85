// Package domain implements the progression engine: the XP and level
// formulas, streak rules, achievement evaluation, and the analytics derived
// from workout history.
package domain

import "time"

// UserProgression is the gamified slice of the user record. Level is always
// derived from XP via LevelForXP, and the longest streak never trails the
// current one.
type UserProgression struct {
	ID              string
	Username        string
	XP              int
	Level           int
	Coins           int
	CurrentStreak   int
	LongestStreak   int
	LastWorkoutDate *time.Time
	AvatarIcon      string
	UsernameColor   string
	Verified        bool
	Title           *string
	CreatedAt       time.Time
}

// WorkoutSession is one training occurrence. A nil EndedAt means the session
// is still in progress; it is set exactly once, by CompleteSession.
type WorkoutSession struct {
	ID        string
	UserID    string
	RoutineID *string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Finished reports whether the session has been sealed.
func (s *WorkoutSession) Finished() bool { return s.EndedAt != nil }

// SetLog records one completed set. Immutable once written.
type SetLog struct {
	ID         string
	SessionID  string
	ExerciseID string
	SetNumber  int
	WeightKg   float64
	Reps       int
	RPE        *int
	LoggedAt   time.Time
}

// Exercise is catalog reference data. MuscleGroup may be empty.
type Exercise struct {
	ID          string
	Name        string
	MuscleGroup string
	Description string
}

// ShopItemType selects how a purchased item is applied to the profile.
type ShopItemType string

const (
	ShopItemAvatar ShopItemType = "avatar"
	ShopItemColor  ShopItemType = "color"
	ShopItemTitle  ShopItemType = "title"
	ShopItemBadge  ShopItemType = "badge"
)

// ShopItem is a catalog entry purchasable with coins.
type ShopItem struct {
	ID            string
	Name          string
	Description   string
	ItemType      ShopItemType
	Value         string
	Price         int
	RequiredLevel int
	Active        bool
}

// Cursor models the pagination token for session listings.
type Cursor struct {
	StartedAt time.Time
	ID        string
}
