package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimer(t *testing.T) {
	timer := NewTimer()
	require.NotNil(t, timer)
	assert.False(t, timer.start.IsZero())
	assert.Less(t, time.Since(timer.start), time.Second)
}

func TestTimerDurationGrows(t *testing.T) {
	timer := NewTimer()

	time.Sleep(20 * time.Millisecond)
	first := timer.Duration()
	time.Sleep(20 * time.Millisecond)
	second := timer.Duration()

	assert.GreaterOrEqual(t, first, 20*time.Millisecond)
	assert.Greater(t, second, first)
}

func TestTimerObserveDuration(t *testing.T) {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_duration_seconds",
		Help:    "Test duration histogram",
		Buckets: prometheus.DefBuckets,
	})

	NewTimer().ObserveDuration(histogram)

	assert.Equal(t, 1, testutil.CollectAndCount(histogram))
}

func TestTimerObserveDurationVec(t *testing.T) {
	histogramVec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "test_duration_vec_seconds",
			Help:    "Test duration histogram vec",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	timer := NewTimer()
	timer.ObserveDurationVec(histogramVec, "create")
	timer.ObserveDurationVec(histogramVec, "end")

	assert.Equal(t, 2, testutil.CollectAndCount(histogramVec))
}
