package domain

import (
	"fmt"
	"sort"
	"time"
)

// UncategorizedMuscleGroup labels sets whose exercise has no muscle group.
const UncategorizedMuscleGroup = "Uncategorized"

// Default trailing windows for the read-side queries.
const (
	DefaultVolumeWindowDays      = 30
	DefaultProgressionWindowDays = 90
	DefaultHeatmapWindowDays     = 365
	DefaultWeeklyVolumeWeeks     = 12
)

// TrainingSet is a set log joined with its exercise, the unit the analytics
// aggregations consume.
type TrainingSet struct {
	ExerciseID   string
	ExerciseName string
	MuscleGroup  string
	WeightKg     float64
	Reps         int
	LoggedAt     time.Time
}

// MuscleGroupVolume is the total volume lifted for one muscle group.
type MuscleGroupVolume struct {
	MuscleGroup string
	VolumeKg    float64
}

// VolumeByMuscleGroup sums weight x reps per muscle group, largest first.
func VolumeByMuscleGroup(sets []TrainingSet) []MuscleGroupVolume {
	totals := make(map[string]float64)
	for _, s := range sets {
		group := s.MuscleGroup
		if group == "" {
			group = UncategorizedMuscleGroup
		}
		totals[group] += s.WeightKg * float64(s.Reps)
	}
	out := make([]MuscleGroupVolume, 0, len(totals))
	for group, volume := range totals {
		out = append(out, MuscleGroupVolume{MuscleGroup: group, VolumeKg: volume})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VolumeKg != out[j].VolumeKg {
			return out[i].VolumeKg > out[j].VolumeKg
		}
		return out[i].MuscleGroup < out[j].MuscleGroup
	})
	return out
}

// ProgressionPoint is the best estimated 1RM on a single training day.
type ProgressionPoint struct {
	Date         time.Time
	Estimated1RM float64
}

// OneRepMaxProgression reduces a set history to one point per day that has at
// least one log: the highest estimated 1RM of that day, chronological.
func OneRepMaxProgression(sets []TrainingSet) []ProgressionPoint {
	daily := make(map[time.Time]float64)
	for _, s := range sets {
		if s.Reps < 1 {
			continue
		}
		day := civilDate(s.LoggedAt)
		if est := EstimatedOneRepMax(s.WeightKg, s.Reps); est > daily[day] {
			daily[day] = est
		}
	}
	out := make([]ProgressionPoint, 0, len(daily))
	for day, est := range daily {
		out = append(out, ProgressionPoint{Date: day, Estimated1RM: est})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// PersonalRecord is the best-ever estimated 1RM for an exercise, together
// with the set that produced it.
type PersonalRecord struct {
	ExerciseID   string
	ExerciseName string
	MuscleGroup  string
	Estimated1RM float64
	WeightKg     float64
	Reps         int
	Date         time.Time
}

// PersonalRecords finds, per exercise, the set with the highest estimated
// 1RM across the whole history, best lift first.
func PersonalRecords(sets []TrainingSet) []PersonalRecord {
	best := make(map[string]PersonalRecord)
	for _, s := range sets {
		if s.Reps < 1 {
			continue
		}
		est := EstimatedOneRepMax(s.WeightKg, s.Reps)
		if current, ok := best[s.ExerciseID]; ok && est <= current.Estimated1RM {
			continue
		}
		group := s.MuscleGroup
		if group == "" {
			group = UncategorizedMuscleGroup
		}
		best[s.ExerciseID] = PersonalRecord{
			ExerciseID:   s.ExerciseID,
			ExerciseName: s.ExerciseName,
			MuscleGroup:  group,
			Estimated1RM: est,
			WeightKg:     s.WeightKg,
			Reps:         s.Reps,
			Date:         s.LoggedAt,
		}
	}
	out := make([]PersonalRecord, 0, len(best))
	for _, pr := range best {
		out = append(out, pr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Estimated1RM != out[j].Estimated1RM {
			return out[i].Estimated1RM > out[j].Estimated1RM
		}
		return out[i].ExerciseName < out[j].ExerciseName
	})
	return out
}

// HeatmapEntry counts sessions started on one calendar day.
type HeatmapEntry struct {
	Date  time.Time
	Count int
}

// TrainingHeatmap counts sessions per calendar day, chronological.
func TrainingHeatmap(sessionStarts []time.Time) []HeatmapEntry {
	counts := make(map[time.Time]int)
	for _, started := range sessionStarts {
		counts[civilDate(started)]++
	}
	out := make([]HeatmapEntry, 0, len(counts))
	for day, count := range counts {
		out = append(out, HeatmapEntry{Date: day, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// WeekVolume is the training volume of one ISO week.
type WeekVolume struct {
	Week     string
	VolumeKg float64
}

// WeeklyVolume groups volume by ISO year and week, chronological. Labels
// like "2025-W07" sort lexically in week order.
func WeeklyVolume(sets []TrainingSet) []WeekVolume {
	totals := make(map[string]float64)
	for _, s := range sets {
		year, week := s.LoggedAt.UTC().ISOWeek()
		label := fmt.Sprintf("%d-W%02d", year, week)
		totals[label] += s.WeightKg * float64(s.Reps)
	}
	out := make([]WeekVolume, 0, len(totals))
	for label, volume := range totals {
		out = append(out, WeekVolume{Week: label, VolumeKg: volume})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out
}
