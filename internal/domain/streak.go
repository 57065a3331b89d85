package domain

import "time"

// StreakUpdate reports the outcome of a streak evaluation. Updated is false
// only when the user had already trained on the same calendar day.
type StreakUpdate struct {
	CurrentStreak int
	LongestStreak int
	Updated       bool
}

// civilDate truncates a timestamp to its calendar day in UTC.
func civilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UpdateStreak advances the consecutive-day training streak for a session
// completed at the given instant. A second completion on the same calendar
// day leaves the streak untouched; training on the day after the previous
// active day extends it; anything else (first session, a gap of two or more
// days, a clock anomaly) restarts it at 1.
func (u *UserProgression) UpdateStreak(now time.Time) StreakUpdate {
	today := civilDate(now)

	if u.LastWorkoutDate != nil && civilDate(*u.LastWorkoutDate).Equal(today) {
		return StreakUpdate{CurrentStreak: u.CurrentStreak, LongestStreak: u.LongestStreak, Updated: false}
	}

	yesterday := today.AddDate(0, 0, -1)
	if u.LastWorkoutDate != nil && civilDate(*u.LastWorkoutDate).Equal(yesterday) {
		u.CurrentStreak++
	} else {
		u.CurrentStreak = 1
	}

	u.LastWorkoutDate = &today
	if u.CurrentStreak > u.LongestStreak {
		u.LongestStreak = u.CurrentStreak
	}

	return StreakUpdate{CurrentStreak: u.CurrentStreak, LongestStreak: u.LongestStreak, Updated: true}
}
