package autoload

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Sync outcomes recorded by the engine.
const (
	OutcomeApplied           = "applied"
	OutcomeTargetUnavailable = "target_unavailable"
	OutcomeNotReady          = "not_ready"
	OutcomeDisabled          = "disabled"
	OutcomeConfigNotFound    = "config_not_found"
	OutcomeConfigParseError  = "config_parse_error"
	OutcomeProfileNotFound   = "profile_not_found"
	OutcomeAccessError       = "access_error"
)

// Placement outcomes recorded by the spawner.
const (
	PlacementTransferred       = "transferred"
	PlacementSuppressed        = "suppressed"
	PlacementDisabled          = "disabled"
	PlacementDimensionNotFound = "dimension_not_found"
)

// Metrics counts sync attempts and placements by outcome.
type Metrics struct {
	syncs      *prometheus.CounterVec
	placements *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoload",
			Name:      "sync_attempts_total",
			Help:      "Profile sync attempts by outcome.",
		}, []string{"outcome"}),
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoload",
			Name:      "placements_total",
			Help:      "Player spawn placements by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.syncs, m.placements)
	}
	return m
}

// Collectors returns the underlying collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.syncs, m.placements}
}

func (m *Metrics) sync(outcome string) {
	if m == nil {
		return
	}
	m.syncs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) placement(outcome string) {
	if m == nil {
		return
	}
	m.placements.WithLabelValues(outcome).Inc()
}

// outcomeOf maps a sync error to its outcome label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, ErrTargetUnavailable):
		return OutcomeTargetUnavailable
	case errors.Is(err, ErrNotReady):
		return OutcomeNotReady
	case errors.Is(err, ErrDisabled):
		return OutcomeDisabled
	case errors.Is(err, ErrConfigNotFound):
		return OutcomeConfigNotFound
	case errors.Is(err, ErrConfigParse):
		return OutcomeConfigParseError
	case errors.Is(err, ErrProfileNotFound):
		return OutcomeProfileNotFound
	default:
		return OutcomeAccessError
	}
}
