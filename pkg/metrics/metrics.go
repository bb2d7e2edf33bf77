package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by cart operations.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// CartMetrics records cart engine operations and backend round trips.
type CartMetrics struct {
	opDuration      *prometheus.HistogramVec
	opTotal         *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	backendTotal    *prometheus.CounterVec
	voucherTotal    *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobTotal        *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	opDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_cart_operation_duration_seconds",
		Help:    "Duration of cart engine operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "authority"})
	opTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_operations_total",
		Help: "Cart engine operations by outcome.",
	}, []string{"operation", "authority", "outcome"})
	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_backend_request_duration_seconds",
		Help:    "Duration of backend API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	backendTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_backend_requests_total",
		Help: "Backend API calls by status code.",
	}, []string{"endpoint", "status"})
	voucherTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_voucher_evaluations_total",
		Help: "Voucher evaluations by resulting state.",
	}, []string{"state"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_housekeeping_job_duration_seconds",
		Help:    "Duration of housekeeping jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	jobTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_housekeeping_job_runs_total",
		Help: "Housekeeping job runs by outcome.",
	}, []string{"job", "outcome"})
	reg.MustRegister(opDuration, opTotal, backendDuration, backendTotal, voucherTotal, jobDuration, jobTotal)
	return &CartMetrics{
		opDuration:      opDuration,
		opTotal:         opTotal,
		backendDuration: backendDuration,
		backendTotal:    backendTotal,
		voucherTotal:    voucherTotal,
		jobDuration:     jobDuration,
		jobTotal:        jobTotal,
	}
}

// ObserveOperation records one cart operation.
func (m *CartMetrics) ObserveOperation(op, authority string, duration time.Duration, err error) {
	if m == nil || m.opTotal == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	op, authority = normalizeLabel(op), normalizeLabel(authority)
	m.opDuration.WithLabelValues(op, authority).Observe(duration.Seconds())
	m.opTotal.WithLabelValues(op, authority, outcome).Inc()
}

// ObserveBackend records one backend call. A status of 0 means transport failure.
func (m *CartMetrics) ObserveBackend(endpoint string, status int, duration time.Duration) {
	if m == nil || m.backendTotal == nil {
		return
	}
	endpoint = normalizeLabel(endpoint)
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.backendDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	m.backendTotal.WithLabelValues(endpoint, label).Inc()
}

// IncVoucher counts a voucher evaluation ending in the given state.
func (m *CartMetrics) IncVoucher(state string) {
	if m == nil || m.voucherTotal == nil {
		return
	}
	m.voucherTotal.WithLabelValues(normalizeLabel(state)).Inc()
}

// ObserveJob records one housekeeping job run.
func (m *CartMetrics) ObserveJob(job string, duration time.Duration, err error) {
	if m == nil || m.jobTotal == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	job = normalizeLabel(job)
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
	m.jobTotal.WithLabelValues(job, outcome).Inc()
}

// Handler exposes the gatherer in the prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
