package metrics

import (
	"testing"

	"github.com/marque-api/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_CountPerMarket(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.AdminLogin(domain.MarketKG, "success")
	m.AdminLogin(domain.MarketKG, "success")
	m.AdminLogin(domain.MarketUS, "invalid_credentials")
	m.Purged(domain.MarketUS, 3)
	m.Purged(domain.MarketUS, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AdminLogins.WithLabelValues("kg", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdminLogins.WithLabelValues("us", "invalid_credentials")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ExpiredCodesPurged.WithLabelValues("us")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.EngineOpened(domain.MarketKG)
		m.Unavailable(domain.MarketUS)
		m.CodeVerified(domain.MarketKG, "verified")
	})
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
