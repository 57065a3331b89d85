package domain

import "time"

// AchievementCategory selects which cumulative stat an achievement threshold
// applies to.
type AchievementCategory string

const (
	CategorySessions AchievementCategory = "sessions"
	CategoryVolume   AchievementCategory = "volume"
	CategoryLevel    AchievementCategory = "level"
	CategoryStreak   AchievementCategory = "streak"
)

// Achievement is a static catalog entry. Requirement is the threshold the
// category stat must reach.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Category    AchievementCategory
	Requirement int
	XPReward    int
	CoinsReward int
}

// AchievementStatus pairs a catalog entry with its unlocked state for a user.
type AchievementStatus struct {
	Achievement
	Unlocked   bool
	UnlockedAt *time.Time
}

// UserStats are the cumulative figures achievements are judged against.
type UserStats struct {
	TotalSessions int
	TotalVolumeKg float64
	Level         int
	CurrentStreak int
}

// statFor maps an achievement category to the matching stat. Unknown
// categories never qualify.
func (s UserStats) statFor(category AchievementCategory) (float64, bool) {
	switch category {
	case CategorySessions:
		return float64(s.TotalSessions), true
	case CategoryVolume:
		return s.TotalVolumeKg, true
	case CategoryLevel:
		return float64(s.Level), true
	case CategoryStreak:
		return float64(s.CurrentStreak), true
	default:
		return 0, false
	}
}

// QualifyingAchievements filters the still-locked catalog down to entries
// whose threshold the stats now meet.
func QualifyingAchievements(stats UserStats, locked []Achievement) []Achievement {
	out := make([]Achievement, 0)
	for _, a := range locked {
		if stat, ok := stats.statFor(a.Category); ok && stat >= float64(a.Requirement) {
			out = append(out, a)
		}
	}
	return out
}
