// Package metrics holds Prometheus metrics for the geo subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the geo subsystem's Prometheus collectors.
type Metrics struct {
	AddressesCreated prometheus.Counter
	GeocoderRequests *prometheus.CounterVec
	ResolveDuration  prometheus.Histogram
}

// New creates and registers the geo metrics.
func New() *Metrics {
	return &Metrics{
		AddressesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kidsearch_addresses_created_total",
			Help: "Total number of leaf address rows created.",
		}),
		GeocoderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kidsearch_geocoder_requests_total",
			Help: "Geocoder normalization attempts by result.",
		}, []string{"result"}),
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kidsearch_address_resolve_duration_seconds",
			Help:    "Duration of full address resolution including creation.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveGeocoder records the outcome of one normalization attempt.
func (m *Metrics) ObserveGeocoder(result string) {
	if m == nil {
		return
	}
	m.GeocoderRequests.WithLabelValues(result).Inc()
}

// IncrementAddressesCreated bumps the created-addresses counter.
func (m *Metrics) IncrementAddressesCreated() {
	if m == nil {
		return
	}
	m.AddressesCreated.Inc()
}

// ObserveResolveDuration records one resolution's wall time in seconds.
func (m *Metrics) ObserveResolveDuration(seconds float64) {
	if m == nil {
		return
	}
	m.ResolveDuration.Observe(seconds)
}
