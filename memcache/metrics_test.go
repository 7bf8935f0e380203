package memcache

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPromMetrics(reg, "test")

	c, err := New[string, int](LRU, Config[string]{Limit: 2, Metrics: m.For("sessions")})
	require.NoError(t, err)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)
	c.Get("c")
	c.Get("a")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.hits.WithLabelValues("sessions")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.misses.WithLabelValues("sessions")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evictions.WithLabelValues("sessions")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.entries.WithLabelValues("sessions")))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
