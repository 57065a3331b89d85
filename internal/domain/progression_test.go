package domain

import (
	"testing"
	"time"
)

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{9900, 10},
		{10000, 11},
		{-5, 1},
	}
	for _, tc := range cases {
		if got := LevelForXP(tc.xp); got != tc.level {
			t.Fatalf("LevelForXP(%d) = %d, want %d", tc.xp, got, tc.level)
		}
	}
}

func TestLevelMonotonic(t *testing.T) {
	prev := LevelForXP(0)
	for xp := 1; xp <= 20000; xp += 37 {
		level := LevelForXP(xp)
		if level < prev {
			t.Fatalf("level decreased from %d to %d at xp=%d", prev, level, xp)
		}
		prev = level
	}
}

func TestXPRequiredRoundTrip(t *testing.T) {
	for level := 1; level <= 60; level++ {
		boundary := XPRequiredForLevel(level)
		if got := LevelForXP(boundary); got != level {
			t.Fatalf("LevelForXP(XPRequiredForLevel(%d)) = %d", level, got)
		}
		if level > 1 {
			if got := LevelForXP(boundary - 1); got != level-1 {
				t.Fatalf("xp just below level %d boundary maps to %d", level, got)
			}
		}
	}
}

func TestProgressPercentageClamped(t *testing.T) {
	if got := ProgressPercentage(0, 1); got != 0 {
		t.Fatalf("fresh user progress = %f, want 0", got)
	}
	if got := ProgressPercentage(50, 1); got != 50 {
		t.Fatalf("midway progress = %f, want 50", got)
	}
	// XP beyond the next boundary clamps rather than overflowing.
	if got := ProgressPercentage(1000, 1); got != 100 {
		t.Fatalf("overshoot progress = %f, want 100", got)
	}
	if got := ProgressPercentage(0, 3); got != 0 {
		t.Fatalf("underwater progress = %f, want 0", got)
	}
}

func TestEstimatedOneRepMax(t *testing.T) {
	// Single-rep sets are their own 1RM, no Epley inflation.
	if got := EstimatedOneRepMax(120, 1); got != 120 {
		t.Fatalf("1-rep 1RM = %f, want 120", got)
	}
	got := EstimatedOneRepMax(100, 5)
	want := 100 * (1 + 5.0/30)
	if got != want {
		t.Fatalf("Epley 1RM = %f, want %f", got, want)
	}
}

func TestAddXPLevelUpPaysCoins(t *testing.T) {
	u := &UserProgression{XP: 9900, Level: 10, Coins: 3}
	up := u.AddXP(200)
	if up == nil {
		t.Fatal("expected a level up")
	}
	if up.NewLevel != 11 || up.CoinsEarned != 10 {
		t.Fatalf("unexpected level up %+v", up)
	}
	if u.XP != 10100 || u.Level != 11 || u.Coins != 13 {
		t.Fatalf("unexpected progression state %+v", u)
	}
}

func TestAddXPNoBoundary(t *testing.T) {
	u := &UserProgression{XP: 10, Level: 1}
	if up := u.AddXP(44); up != nil {
		t.Fatalf("unexpected level up %+v", up)
	}
	if u.XP != 54 || u.Level != 1 || u.Coins != 0 {
		t.Fatalf("unexpected progression state %+v", u)
	}
}

func TestAddXPMultipleLevels(t *testing.T) {
	u := &UserProgression{XP: 0, Level: 1}
	up := u.AddXP(400)
	if up == nil || up.NewLevel != 3 || up.CoinsEarned != 20 {
		t.Fatalf("unexpected level up %+v", up)
	}
}

func TestAddXPIgnoresNonPositive(t *testing.T) {
	u := &UserProgression{XP: 100, Level: 2}
	if up := u.AddXP(0); up != nil {
		t.Fatalf("unexpected level up for zero award")
	}
	if u.XP != 100 {
		t.Fatalf("xp changed on zero award: %d", u.XP)
	}
}

func TestSessionXP(t *testing.T) {
	logged := time.Date(2025, time.March, 3, 18, 0, 0, 0, time.UTC)
	logs := []SetLog{
		{ExerciseID: "ex-bench-press", WeightKg: 100, Reps: 5, LoggedAt: logged},
		{ExerciseID: "ex-bench-press", WeightKg: 100, Reps: 5, LoggedAt: logged},
		{ExerciseID: "ex-back-squat", WeightKg: 140, Reps: 5, LoggedAt: logged},
	}

	xp, volume := SessionXP(logs)
	if volume != 1700 {
		t.Fatalf("volume = %f, want 1700", volume)
	}
	// 20 base + 17 volume + 2 exercises * 5.
	if xp != 47 {
		t.Fatalf("xp = %d, want 47", xp)
	}
}

func TestSessionXPEmptySession(t *testing.T) {
	xp, volume := SessionXP(nil)
	if xp != sessionBaseXP || volume != 0 {
		t.Fatalf("empty session xp=%d volume=%f", xp, volume)
	}
}
