package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	sessionsCompletedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymtrack",
		Subsystem: "progression",
		Name:      "sessions_completed_total",
		Help:      "Number of workout sessions sealed by the completion engine.",
	})
	xpAwardedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymtrack",
		Subsystem: "progression",
		Name:      "xp_awarded_total",
		Help:      "Total XP granted across all session completions.",
	})
	levelUpCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymtrack",
		Subsystem: "progression",
		Name:      "level_ups_total",
		Help:      "Number of completions that crossed at least one level boundary.",
	})
	lastLevelUpGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gymtrack",
		Subsystem: "progression",
		Name:      "last_level_up_level",
		Help:      "Level reached by the most recent level-up.",
	})
	achievementsUnlockedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymtrack",
		Subsystem: "progression",
		Name:      "achievements_unlocked_total",
		Help:      "Number of achievement unlocks granted by the evaluator.",
	})
)

func init() {
	prometheus.MustRegister(
		sessionsCompletedCounter,
		xpAwardedCounter,
		levelUpCounter,
		lastLevelUpGauge,
		achievementsUnlockedCounter,
	)
}

// RecordSessionCompleted counts a sealed session and its XP award.
func RecordSessionCompleted(xpGained int) {
	sessionsCompletedCounter.Inc()
	if xpGained > 0 {
		xpAwardedCounter.Add(float64(xpGained))
	}
}

// RecordLevelUp counts a level-up and notes the level reached.
func RecordLevelUp(newLevel int) {
	levelUpCounter.Inc()
	lastLevelUpGauge.Set(float64(newLevel))
}

// RecordAchievementsUnlocked counts unlocks granted in one evaluation run.
func RecordAchievementsUnlocked(count int) {
	achievementsUnlockedCounter.Add(float64(count))
}
