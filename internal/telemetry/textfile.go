package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Attack outcomes used as the "outcome" label.
const (
	OutcomeCracked   = "cracked"
	OutcomeHandshake = "handshake"
	OutcomeFailed    = "failed"
	OutcomeAborted   = "aborted"
)

// ObserveAttack records one finished attack.
func ObserveAttack(kind, outcome string, took time.Duration) {
	AttacksTotal.WithLabelValues(kind, outcome).Inc()
	AttackSeconds.WithLabelValues(kind).Add(took.Seconds())
}

// ObserveIdentity records a randomize or restore attempt.
func ObserveIdentity(operation string, err error) {
	res := "ok"
	if err != nil {
		res = "error"
	}
	IdentityChanges.WithLabelValues(operation, res).Inc()
}

// WriteTextfile dumps Registry in the node-exporter textfile format. An
// empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	InitMetrics()
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
