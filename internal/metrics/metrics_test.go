package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCommand("get", OutcomeHit, 0.001)
	m.ObserveCommand("get", OutcomeHit, 0.001)
	m.ObserveCommand("get", OutcomeMiss, 0.001)
	m.SetUsage(3, 42)
	m.AddPruned(2)
	m.ConnOpened()
	m.ConnOpened()
	m.ConnClosed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commandsTotal.WithLabelValues("get", OutcomeHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commandsTotal.WithLabelValues("get", OutcomeMiss)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.entries))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.bytes))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.prunedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
