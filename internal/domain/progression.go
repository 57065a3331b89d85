package domain

import "math"

// Gamification tuning constants. Every derived level and reward depends on
// these, so they are centralised here.
const (
	xpLevelBase         = 100
	coinsPerLevel       = 10
	sessionBaseXP       = 20
	volumeKgPerXP       = 100
	xpPerUniqueExercise = 5
)

// LevelForXP derives the level for a cumulative XP total. Level 1 starts at
// 0 XP; level N starts at (N-1)^2 * 100.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return int(math.Sqrt(float64(xp)/float64(xpLevelBase))) + 1
}

// XPRequiredForLevel returns the minimum cumulative XP at which LevelForXP
// first reports the given level.
func XPRequiredForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return (level - 1) * (level - 1) * xpLevelBase
}

// ProgressPercentage reports how far between the current and next level
// boundary the XP total sits, clamped to [0, 100].
func ProgressPercentage(xp, level int) float64 {
	floor := XPRequiredForLevel(level)
	ceil := XPRequiredForLevel(level + 1)
	if ceil == floor {
		return 100
	}
	progress := float64(xp-floor) / float64(ceil-floor) * 100
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// EstimatedOneRepMax estimates the maximal single-rep lift from a set using
// the Epley formula. A single-rep set is its own 1RM. Callers must not pass
// reps < 1.
func EstimatedOneRepMax(weightKg float64, reps int) float64 {
	if reps == 1 {
		return weightKg
	}
	return weightKg * (1 + float64(reps)/30)
}

// LevelUp describes the reward granted when an XP award crosses one or more
// level boundaries.
type LevelUp struct {
	NewLevel    int
	CoinsEarned int
}

// AddXP applies an XP award, recomputing the level and paying out level-up
// coins. Returns nil when no boundary was crossed.
func (u *UserProgression) AddXP(amount int) *LevelUp {
	if amount <= 0 {
		return nil
	}
	u.XP += amount
	newLevel := LevelForXP(u.XP)
	if newLevel <= u.Level {
		return nil
	}
	levelsGained := newLevel - u.Level
	coins := levelsGained * coinsPerLevel
	u.Level = newLevel
	u.Coins += coins
	return &LevelUp{NewLevel: newLevel, CoinsEarned: coins}
}

// SessionXP computes the XP award for a finished session: a flat completion
// bonus, one point per 100 kg of volume, and a variety bonus per distinct
// exercise. Also returns the total session volume.
func SessionXP(logs []SetLog) (xp int, volumeKg float64) {
	exercises := make(map[string]struct{}, len(logs))
	for _, l := range logs {
		volumeKg += l.WeightKg * float64(l.Reps)
		exercises[l.ExerciseID] = struct{}{}
	}
	xp = sessionBaseXP + int(volumeKg/float64(volumeKgPerXP)) + len(exercises)*xpPerUniqueExercise
	return xp, volumeKg
}
