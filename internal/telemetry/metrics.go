package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TargetsDiscovered counts access points seen by discovery scans
	TargetsDiscovered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wlfwifi",
			Name:      "targets_discovered_total",
			Help:      "Total number of access points found by discovery",
		},
		[]string{"interface"},
	)

	// WPSTargets counts targets the WPS detector flagged
	WPSTargets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wlfwifi",
			Name:      "wps_targets_total",
			Help:      "Total number of targets classified as WPS capable",
		},
		[]string{"interface"},
	)

	// AttacksTotal counts finished attacks by kind and outcome
	AttacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wlfwifi",
			Name:      "attacks_total",
			Help:      "Total number of attacks run, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// AttackSeconds accumulates time spent inside attacks
	AttackSeconds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wlfwifi",
			Name:      "attack_seconds_total",
			Help:      "Total time spent running attacks",
		},
		[]string{"kind"},
	)

	// IdentityChanges counts MAC randomizations and restorations
	IdentityChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wlfwifi",
			Name:      "identity_changes_total",
			Help:      "Total number of MAC address changes, by operation and result",
		},
		[]string{"operation", "result"},
	)

	// Registry holds only this tool's metrics so the textfile carries no
	// Go runtime series.
	Registry = prometheus.NewRegistry()

	once sync.Once
)

// InitMetrics registers all metrics with Registry. Safe to call repeatedly.
func InitMetrics() {
	once.Do(func() {
		Registry.MustRegister(
			TargetsDiscovered,
			WPSTargets,
			AttacksTotal,
			AttackSeconds,
			IdentityChanges,
		)
	})
}
