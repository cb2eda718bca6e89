package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the progression collectors.
	Registry = prometheus.NewRegistry()

	PointsAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "progression",
			Subsystem: "points",
			Name:      "recorded_total",
			Help:      "Absolute points written to the ledger, by transaction type.",
		},
		[]string{"type"},
	)

	LedgerFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "progression",
			Subsystem: "points",
			Name:      "ledger_failures_total",
			Help:      "Ledger writes that failed and recorded nothing.",
		},
	)

	LevelUps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "progression",
			Subsystem: "levels",
			Name:      "level_ups_total",
			Help:      "Level-ups, by level reached.",
		},
		[]string{"level"},
	)

	AchievementsAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "progression",
			Subsystem: "achievements",
			Name:      "awarded_total",
			Help:      "Achievements awarded, by category.",
		},
		[]string{"category"},
	)

	BadgesUnlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "progression",
			Subsystem: "badges",
			Name:      "unlocked_total",
			Help:      "Badges unlocked, by rarity.",
		},
		[]string{"rarity"},
	)

	BenefitTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "progression",
			Subsystem: "benefits",
			Name:      "transitions_total",
			Help:      "Level benefit state transitions, by target status.",
		},
		[]string{"status"},
	)

	StreakUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "progression",
			Subsystem: "streaks",
			Name:      "updates_total",
			Help:      "Streak update calls, by streak type and whether the counter advanced.",
		},
		[]string{"streak_type", "advanced"},
	)

	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "progression",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job executions.",
		},
		[]string{"job", "success"},
	)
)

func init() {
	Registry.MustRegister(
		PointsAwarded,
		LedgerFailures,
		LevelUps,
		AchievementsAwarded,
		BadgesUnlocked,
		BenefitTransitions,
		StreakUpdates,
		JobRuns,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
