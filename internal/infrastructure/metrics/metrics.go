package metrics

import (
	"github.com/marque-api/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the market routing and auth core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	EnginesOpened      *prometheus.CounterVec
	StoreUnavailable   *prometheus.CounterVec
	CodesRequested     *prometheus.CounterVec
	CodeVerifications  *prometheus.CounterVec
	AdminLogins        *prometheus.CounterVec
	ExpiredCodesPurged *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EnginesOpened: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marque_store_engines_opened_total",
			Help: "Number of per-market database engines created",
		}, []string{"market"}),
		StoreUnavailable: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marque_store_unavailable_total",
			Help: "Number of failed connection acquisitions per market",
		}, []string{"market"}),
		CodesRequested: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marque_verification_codes_requested_total",
			Help: "Number of verification codes issued",
		}, []string{"market"}),
		CodeVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marque_verification_attempts_total",
			Help: "Verification attempts by outcome",
		}, []string{"market", "outcome"}),
		AdminLogins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marque_admin_logins_total",
			Help: "Operator login attempts by outcome",
		}, []string{"market", "outcome"}),
		ExpiredCodesPurged: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marque_verification_codes_purged_total",
			Help: "Expired verification rows removed by the sweeper",
		}, []string{"market"}),
	}
}

func (m *Metrics) EngineOpened(market domain.Market) {
	if m != nil {
		m.EnginesOpened.WithLabelValues(market.String()).Inc()
	}
}

func (m *Metrics) Unavailable(market domain.Market) {
	if m != nil {
		m.StoreUnavailable.WithLabelValues(market.String()).Inc()
	}
}

func (m *Metrics) CodeRequested(market domain.Market) {
	if m != nil {
		m.CodesRequested.WithLabelValues(market.String()).Inc()
	}
}

func (m *Metrics) CodeVerified(market domain.Market, outcome string) {
	if m != nil {
		m.CodeVerifications.WithLabelValues(market.String(), outcome).Inc()
	}
}

func (m *Metrics) AdminLogin(market domain.Market, outcome string) {
	if m != nil {
		m.AdminLogins.WithLabelValues(market.String(), outcome).Inc()
	}
}

func (m *Metrics) Purged(market domain.Market, n int64) {
	if m != nil && n > 0 {
		m.ExpiredCodesPurged.WithLabelValues(market.String()).Add(float64(n))
	}
}
