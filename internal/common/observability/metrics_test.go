// internal/common/observability/metrics_test.go
package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_Records(t *testing.T) {
	reg := promclient.NewRegistry()
	obs, err := New("school-match-test", reg)
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	obs.RecordJob(ctx, "quick-match", "completed", 120*time.Millisecond)
	obs.RecordMatch(ctx, "balanced", 48, 7)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Subset(t, names, []string{
		"jobs_processed_total",
		"jobs_duration_milliseconds",
		"match_pairs",
		"match_shortlisted_total",
	})
	for _, name := range names {
		assert.False(t, strings.Contains(name, "."), "unescaped metric name %q", name)
	}
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	obs.RecordJob(context.Background(), "quick-match", "failed", time.Second)
	obs.RecordMatch(context.Background(), "balanced", 1, 1)
	assert.NoError(t, obs.Shutdown(context.Background()))
}
