package domain

import "testing"

func TestQualifyingAchievements(t *testing.T) {
	locked := []Achievement{
		{ID: "ach-sessions-5", Category: CategorySessions, Requirement: 5},
		{ID: "ach-sessions-10", Category: CategorySessions, Requirement: 10},
		{ID: "ach-volume-1t", Category: CategoryVolume, Requirement: 1000},
		{ID: "ach-level-5", Category: CategoryLevel, Requirement: 5},
		{ID: "ach-streak-7", Category: CategoryStreak, Requirement: 7},
	}
	stats := UserStats{
		TotalSessions: 6,
		TotalVolumeKg: 999.5,
		Level:         5,
		CurrentStreak: 2,
	}

	got := QualifyingAchievements(stats, locked)
	want := map[string]bool{"ach-sessions-5": true, "ach-level-5": true}
	if len(got) != len(want) {
		t.Fatalf("qualified %d achievements, want %d: %+v", len(got), len(want), got)
	}
	for _, a := range got {
		if !want[a.ID] {
			t.Fatalf("unexpected qualification %s", a.ID)
		}
	}
}

func TestQualifyingAchievementsExactThreshold(t *testing.T) {
	locked := []Achievement{{ID: "ach-volume-1t", Category: CategoryVolume, Requirement: 1000}}
	got := QualifyingAchievements(UserStats{TotalVolumeKg: 1000}, locked)
	if len(got) != 1 {
		t.Fatalf("threshold volume should qualify, got %+v", got)
	}
}

func TestQualifyingAchievementsUnknownCategory(t *testing.T) {
	locked := []Achievement{{ID: "ach-mystery", Category: "mystery", Requirement: 0}}
	got := QualifyingAchievements(UserStats{TotalSessions: 100}, locked)
	if len(got) != 0 {
		t.Fatalf("unknown category qualified: %+v", got)
	}
}

func TestQualifyingAchievementsEmptyInput(t *testing.T) {
	got := QualifyingAchievements(UserStats{}, nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}
