package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("blocked_dates", 200)
		IncEvaluation("stay", "valid")
		IncCalendarLoad("cache", "hit")
		ObserveUpstream(0, 15*time.Millisecond)
	})

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["innkeeper_http_requests_total"])
	assert.True(t, names["innkeeper_evaluations_total"])
	assert.True(t, names["innkeeper_calendar_loads_total"])
	assert.True(t, names["innkeeper_upstream_request_duration_seconds"])
}
