package domain

import (
	"testing"
	"time"
)

func TestVolumeByMuscleGroup(t *testing.T) {
	sets := []TrainingSet{
		{ExerciseName: "Barbell Bench Press", MuscleGroup: "Chest", WeightKg: 100, Reps: 5},
		{ExerciseName: "Incline Bench Press", MuscleGroup: "Chest", WeightKg: 80, Reps: 10},
		{ExerciseName: "Barbell Back Squat", MuscleGroup: "Legs", WeightKg: 140, Reps: 5},
		{ExerciseName: "Weighted Plank", MuscleGroup: "", WeightKg: 20, Reps: 1},
	}

	got := VolumeByMuscleGroup(sets)
	if len(got) != 3 {
		t.Fatalf("expected 3 groups, got %+v", got)
	}
	if got[0].MuscleGroup != "Chest" || got[0].VolumeKg != 1300 {
		t.Fatalf("unexpected top group %+v", got[0])
	}
	if got[1].MuscleGroup != "Legs" || got[1].VolumeKg != 700 {
		t.Fatalf("unexpected second group %+v", got[1])
	}
	if got[2].MuscleGroup != UncategorizedMuscleGroup {
		t.Fatalf("null muscle group not mapped: %+v", got[2])
	}
}

func TestOneRepMaxProgressionDailyMax(t *testing.T) {
	morning := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2025, time.April, 1, 19, 0, 0, 0, time.UTC)
	nextDay := time.Date(2025, time.April, 2, 18, 0, 0, 0, time.UTC)

	sets := []TrainingSet{
		{ExerciseID: "ex-bench-press", WeightKg: 100, Reps: 5, LoggedAt: evening},
		{ExerciseID: "ex-bench-press", WeightKg: 90, Reps: 8, LoggedAt: morning},
		{ExerciseID: "ex-bench-press", WeightKg: 105, Reps: 3, LoggedAt: nextDay},
	}

	got := OneRepMaxProgression(sets)
	if len(got) != 2 {
		t.Fatalf("expected one point per day, got %+v", got)
	}
	if !got[0].Date.Before(got[1].Date) {
		t.Fatalf("points not chronological: %+v", got)
	}
	// Day one keeps the best of the two sets (100x5 beats 90x8).
	want := EstimatedOneRepMax(100, 5)
	if got[0].Estimated1RM != want {
		t.Fatalf("day one 1RM = %f, want %f", got[0].Estimated1RM, want)
	}
}

func TestPersonalRecordsBestPerExercise(t *testing.T) {
	when := time.Date(2025, time.April, 1, 18, 0, 0, 0, time.UTC)
	sets := []TrainingSet{
		{ExerciseID: "ex-bench-press", ExerciseName: "Barbell Bench Press", MuscleGroup: "Chest", WeightKg: 100, Reps: 5, LoggedAt: when},
		{ExerciseID: "ex-bench-press", ExerciseName: "Barbell Bench Press", MuscleGroup: "Chest", WeightKg: 110, Reps: 2, LoggedAt: when.AddDate(0, 0, 7)},
		{ExerciseID: "ex-back-squat", ExerciseName: "Barbell Back Squat", MuscleGroup: "Legs", WeightKg: 150, Reps: 3, LoggedAt: when},
	}

	got := PersonalRecords(sets)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %+v", got)
	}
	// Sorted by estimated 1RM, squat first.
	if got[0].ExerciseID != "ex-back-squat" {
		t.Fatalf("unexpected order: %+v", got)
	}
	bench := got[1]
	if bench.WeightKg != 110 || bench.Reps != 2 {
		t.Fatalf("bench record kept the wrong set: %+v", bench)
	}
}

func TestTrainingHeatmapCountsPerDay(t *testing.T) {
	d1 := time.Date(2025, time.May, 1, 7, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, time.May, 3, 19, 0, 0, 0, time.UTC)

	got := TrainingHeatmap([]time.Time{d1, d1.Add(10 * time.Hour), d2})
	if len(got) != 2 {
		t.Fatalf("expected 2 days, got %+v", got)
	}
	if got[0].Count != 2 || got[1].Count != 1 {
		t.Fatalf("unexpected counts %+v", got)
	}
}

func TestWeeklyVolumeISOWeeks(t *testing.T) {
	// Monday of ISO week 2025-W14 and the following Monday.
	week14 := time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC)
	week15 := week14.AddDate(0, 0, 7)

	sets := []TrainingSet{
		{WeightKg: 100, Reps: 10, LoggedAt: week14},
		{WeightKg: 50, Reps: 10, LoggedAt: week14.AddDate(0, 0, 2)},
		{WeightKg: 120, Reps: 5, LoggedAt: week15},
	}

	got := WeeklyVolume(sets)
	if len(got) != 2 {
		t.Fatalf("expected 2 weeks, got %+v", got)
	}
	if got[0].Week != "2025-W14" || got[0].VolumeKg != 1500 {
		t.Fatalf("unexpected first week %+v", got[0])
	}
	if got[1].Week != "2025-W15" || got[1].VolumeKg != 600 {
		t.Fatalf("unexpected second week %+v", got[1])
	}
}

func TestAnalyticsEmptyInputs(t *testing.T) {
	if got := VolumeByMuscleGroup(nil); got == nil || len(got) != 0 {
		t.Fatalf("VolumeByMuscleGroup(nil) = %v", got)
	}
	if got := OneRepMaxProgression(nil); got == nil || len(got) != 0 {
		t.Fatalf("OneRepMaxProgression(nil) = %v", got)
	}
	if got := PersonalRecords(nil); got == nil || len(got) != 0 {
		t.Fatalf("PersonalRecords(nil) = %v", got)
	}
	if got := TrainingHeatmap(nil); got == nil || len(got) != 0 {
		t.Fatalf("TrainingHeatmap(nil) = %v", got)
	}
	if got := WeeklyVolume(nil); got == nil || len(got) != 0 {
		t.Fatalf("WeeklyVolume(nil) = %v", got)
	}
}
