package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()
	require.NotNil(t, m)

	m.CounterLoginAttempts.With(prometheus.Labels{"result": LoginResultSuccess}).Inc()
	m.CounterLoginAttempts.With(prometheus.Labels{"result": LoginResultBadCreds}).Inc()
	m.CounterLoginAttempts.With(prometheus.Labels{"result": LoginResultBadCreds}).Inc()
	m.CounterPasswordChanges.Inc()
	m.GaugeLifeSignal.Set(1)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterLoginAttempts.WithLabelValues(LoginResultSuccess)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CounterLoginAttempts.WithLabelValues(LoginResultBadCreds)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterPasswordChanges))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GaugeLifeSignal))

	count, err := testutil.GatherAndCount(reg, "backend_test_server_login_attempts")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSetupPrometheus(t *testing.T) {
	extra := prometheus.NewCounter(prometheus.CounterOpts{Name: "extra_counter", Help: "extra"})
	reg := SetupPrometheus(extra)
	require.NotNil(t, reg)

	extra.Inc()
	count, err := testutil.GatherAndCount(reg, "extra_counter")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// registering twice must fail
	assert.Error(t, reg.Register(extra))
}
