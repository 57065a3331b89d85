package domain

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 19, 30, 0, 0, time.UTC)
}

func TestUpdateStreak(t *testing.T) {
	monday := day(2025, time.June, 2)

	cases := []struct {
		name        string
		last        *time.Time
		current     int
		longest     int
		now         time.Time
		wantCurrent int
		wantLongest int
		wantUpdated bool
	}{
		{
			name:        "first ever session",
			now:         monday,
			wantCurrent: 1,
			wantLongest: 1,
			wantUpdated: true,
		},
		{
			name:        "consecutive day extends",
			last:        ptrTime(monday),
			current:     3,
			longest:     5,
			now:         monday.AddDate(0, 0, 1),
			wantCurrent: 4,
			wantLongest: 5,
			wantUpdated: true,
		},
		{
			name:        "extension sets a new longest",
			last:        ptrTime(monday),
			current:     5,
			longest:     5,
			now:         monday.AddDate(0, 0, 1),
			wantCurrent: 6,
			wantLongest: 6,
			wantUpdated: true,
		},
		{
			name:        "same day is a no-op",
			last:        ptrTime(monday),
			current:     4,
			longest:     7,
			now:         monday.Add(3 * time.Hour),
			wantCurrent: 4,
			wantLongest: 7,
			wantUpdated: false,
		},
		{
			name:        "two-day gap resets",
			last:        ptrTime(monday),
			current:     9,
			longest:     9,
			now:         monday.AddDate(0, 0, 3),
			wantCurrent: 1,
			wantLongest: 9,
			wantUpdated: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := &UserProgression{
				LastWorkoutDate: tc.last,
				CurrentStreak:   tc.current,
				LongestStreak:   tc.longest,
			}
			got := u.UpdateStreak(tc.now)
			if got.CurrentStreak != tc.wantCurrent || got.LongestStreak != tc.wantLongest || got.Updated != tc.wantUpdated {
				t.Fatalf("UpdateStreak = %+v, want current=%d longest=%d updated=%v",
					got, tc.wantCurrent, tc.wantLongest, tc.wantUpdated)
			}
			if got.Updated && (u.LastWorkoutDate == nil || !civilDate(*u.LastWorkoutDate).Equal(civilDate(tc.now))) {
				t.Fatalf("last workout date not advanced: %v", u.LastWorkoutDate)
			}
		})
	}
}

func TestUpdateStreakAcrossMidnight(t *testing.T) {
	// 23:50 and next day 00:10 are consecutive calendar days.
	late := time.Date(2025, time.June, 2, 23, 50, 0, 0, time.UTC)
	early := time.Date(2025, time.June, 3, 0, 10, 0, 0, time.UTC)

	u := &UserProgression{}
	u.UpdateStreak(late)
	got := u.UpdateStreak(early)
	if got.CurrentStreak != 2 || !got.Updated {
		t.Fatalf("midnight boundary streak = %+v", got)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
