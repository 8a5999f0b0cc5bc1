package authgate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics records verification and key refresh outcomes. It
// satisfies core.Metrics and jwks.Metrics.
type PrometheusMetrics struct {
	verifications *prometheus.CounterVec
	duration      prometheus.Histogram
	keyRefreshes  *prometheus.CounterVec
	signingKeys   prometheus.Gauge
}

// NewPrometheusMetrics creates the collectors and registers them on reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics
// handler.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_verifications_total",
			Help: "Credential verifications by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "authgate_verification_duration_seconds",
			Help:    "Time spent verifying a credential, including any key refresh.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		keyRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_key_refreshes_total",
			Help: "Signing key refreshes by result.",
		}, []string{"result"}),
		signingKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "authgate_signing_keys",
			Help: "Number of signing keys in the current snapshot.",
		}),
	}

	for _, c := range []prometheus.Collector{m.verifications, m.duration, m.keyRefreshes, m.signingKeys} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveVerification implements core.Metrics.
func (m *PrometheusMetrics) ObserveVerification(outcome string, d time.Duration) {
	m.verifications.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}

// ObserveKeyRefresh implements jwks.Metrics.
func (m *PrometheusMetrics) ObserveKeyRefresh(result string) {
	m.keyRefreshes.WithLabelValues(result).Inc()
}

// SetSigningKeys implements jwks.Metrics.
func (m *PrometheusMetrics) SetSigningKeys(n int) {
	m.signingKeys.Set(float64(n))
}
