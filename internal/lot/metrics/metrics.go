package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/rfid-textile/internal/lot/domain"
)

// Metrics holds the Prometheus collectors of the lots service
type Metrics struct {
	RequestCounter         *prometheus.CounterVec
	RequestLatency         *prometheus.HistogramVec
	LotTransitions         *prometheus.CounterVec
	LotsStored             prometheus.Counter
	GarmentsScanned        *prometheus.CounterVec
	DetectionDelta         *prometheus.GaugeVec
	DetectionDiscrepancies *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lots_service_requests_total",
				Help: "Total number of requests to the lots service",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lots_service_request_duration_seconds",
				Help:    "Duration of lots service requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		LotTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lot_transitions_total",
				Help: "Applied lot status transitions",
			},
			[]string{"from", "to"},
		),
		LotsStored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lots_stored_total",
				Help: "Lots moved to storage",
			},
		),
		GarmentsScanned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garments_scanned_total",
				Help: "Garment scans applied to lots, by operation",
			},
			[]string{"operation"},
		),
		DetectionDelta: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lot_detection_delta",
				Help: "quantite_finale minus detected tag count of stored lots",
			},
			[]string{"lot_id"},
		),
		DetectionDiscrepancies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "detection_discrepancies_total",
				Help: "Detection counts recorded, by reconciliation outcome",
			},
			[]string{"kind"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.RequestCounter,
			m.RequestLatency,
			m.LotTransitions,
			m.LotsStored,
			m.GarmentsScanned,
			m.DetectionDelta,
			m.DetectionDiscrepancies,
		)
	}
	return m
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, endpoint string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(method, endpoint).Observe(seconds)
	m.RequestCounter.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// Transitioned counts a lot status change
func (m *Metrics) Transitioned(from, to domain.Status) {
	if m == nil {
		return
	}
	m.LotTransitions.WithLabelValues(string(from), string(to)).Inc()
}

// Stored counts a lot moved to storage
func (m *Metrics) Stored() {
	if m == nil {
		return
	}
	m.LotsStored.Inc()
}

// Scanned counts a garment add or remove
func (m *Metrics) Scanned(operation string) {
	if m == nil {
		return
	}
	m.GarmentsScanned.WithLabelValues(operation).Inc()
}

// Detected records the reconciliation outcome of a detection count
func (m *Metrics) Detected(d domain.Discrepancy) {
	if m == nil {
		return
	}
	m.DetectionDelta.WithLabelValues(d.LotID).Set(float64(d.Delta))
	m.DetectionDiscrepancies.WithLabelValues(string(d.Kind)).Inc()
}
