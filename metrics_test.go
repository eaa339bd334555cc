package autoload

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeApplied},
		{ErrTargetUnavailable, OutcomeTargetUnavailable},
		{fmt.Errorf("%w: registry empty", ErrNotReady), OutcomeNotReady},
		{ErrDisabled, OutcomeDisabled},
		{fmt.Errorf("%w: missing", ErrConfigNotFound), OutcomeConfigNotFound},
		{ErrConfigParse, OutcomeConfigParseError},
		{ErrProfileNotFound, OutcomeProfileNotFound},
		{fmt.Errorf("%w: %w", ErrAccess, ErrUnsupported), OutcomeAccessError},
		{errors.New("anything else"), OutcomeAccessError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outcomeOf(tt.err), "%v", tt.err)
	}
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.sync(OutcomeApplied)
	m.sync(OutcomeApplied)
	m.placement(PlacementSuppressed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.syncs.WithLabelValues(OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.placements.WithLabelValues(PlacementSuppressed)))

	n, err := testutil.GatherAndCount(reg, "autoload_sync_attempts_total", "autoload_placements_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Len(t, m.Collectors(), 2)

	var none *Metrics
	none.sync(OutcomeApplied)
	none.placement(PlacementTransferred)
}
