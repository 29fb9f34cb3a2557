package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the admission module. All methods are
// nil-safe so services can run without metrics in tests.
type Metrics struct {
	RequestsSubmitted  *prometheus.CounterVec
	CapacityRejections *prometheus.CounterVec
	CheckIns           *prometheus.CounterVec
	DuplicateBlocks    prometheus.Counter
	TokenRedemptions   *prometheus.CounterVec
	AvailabilityCache  *prometheus.CounterVec
	ConfirmLatency     prometheus.Histogram
}

// New registers all admission metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RequestsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "comebac_admission_requests_submitted_total",
			Help: "Attendance requests accepted as pending, by match kind",
		}, []string{"match_kind"}),

		CapacityRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "comebac_admission_capacity_rejections_total",
			Help: "Submissions rejected because the match was full, by match kind",
		}, []string{"match_kind"}),

		CheckIns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "comebac_admission_check_ins_total",
			Help: "Successful admissions by path (token or manual)",
		}, []string{"path"}),

		DuplicateBlocks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "comebac_admission_duplicate_blocks_total",
			Help: "Check-in attempts refused because another request under the same identity was already admitted",
		}),

		TokenRedemptions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "comebac_admission_token_redemptions_total",
			Help: "Token confirm outcomes (admitted, replayed, blocked, invalid)",
		}, []string{"outcome"}),

		AvailabilityCache: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "comebac_admission_availability_cache_total",
			Help: "Availability cache lookups by result (hit, miss, error)",
		}, []string{"result"}),

		ConfirmLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "comebac_admission_confirm_duration_seconds",
			Help:    "Duration of check-in confirmation including duplicate guard",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementSubmitted(matchKind string) {
	if m != nil {
		m.RequestsSubmitted.WithLabelValues(matchKind).Inc()
	}
}

func (m *Metrics) IncrementCapacityRejected(matchKind string) {
	if m != nil {
		m.CapacityRejections.WithLabelValues(matchKind).Inc()
	}
}

func (m *Metrics) IncrementCheckedIn(path string) {
	if m != nil {
		m.CheckIns.WithLabelValues(path).Inc()
	}
}

func (m *Metrics) IncrementDuplicateBlocked() {
	if m != nil {
		m.DuplicateBlocks.Inc()
	}
}

func (m *Metrics) IncrementTokenRedemption(outcome string) {
	if m != nil {
		m.TokenRedemptions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementCacheResult(result string) {
	if m != nil {
		m.AvailabilityCache.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveConfirmLatency(seconds float64) {
	if m != nil {
		m.ConfirmLatency.Observe(seconds)
	}
}
