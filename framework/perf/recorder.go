package perf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "uitest"

// Recorder collects the measurements of a whole test run. It is safe for concurrent use by
// scenarios running in parallel.
type Recorder struct {
	defaultBudget time.Duration
	budgets       map[string]time.Duration

	lock         sync.Mutex
	measurements []Measurement

	registry  *prometheus.Registry
	durations *prometheus.HistogramVec
	exceeded  *prometheus.CounterVec
}

// NewRecorder creates a Recorder. Operations with no entry in budgets get defaultBudget.
func NewRecorder(defaultBudget time.Duration, budgets map[string]time.Duration) *Recorder {
	r := &Recorder{
		defaultBudget: defaultBudget,
		budgets:       make(map[string]time.Duration, len(budgets)),
		registry:      prometheus.NewRegistry(),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall-clock duration of measured UI operations.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		}, []string{"operation"}),
		exceeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "budget_exceeded_total",
			Help:      "Number of measurements that exceeded their budget.",
		}, []string{"operation"}),
	}
	for k, v := range budgets {
		r.budgets[k] = v
	}
	r.registry.MustRegister(r.durations, r.exceeded)
	return r
}

// Budget returns the configured budget for an operation.
func (r *Recorder) Budget(operation string) time.Duration {
	if b, ok := r.budgets[operation]; ok {
		return b
	}
	return r.defaultBudget
}

// Measure is like the package-level Measure, using the configured budget, and records the result.
// The measurement is recorded, and passed to each of then, even if op panics.
func (r *Recorder) Measure(ctx context.Context, operation string, op func(ctx context.Context) error,
	then ...func(Measurement)) (Measurement, error) {
	return measure(ctx, operation, r.Budget(operation), op, append([]func(Measurement){r.Record}, then...))
}

// Record adds a measurement.
func (r *Recorder) Record(m Measurement) {
	r.lock.Lock()
	r.measurements = append(r.measurements, m)
	r.lock.Unlock()
	r.durations.WithLabelValues(m.Operation).Observe(m.Duration.Seconds())
	if !m.Passed {
		r.exceeded.WithLabelValues(m.Operation).Inc()
	}
}

// Measurements returns everything recorded so far, in order.
func (r *Recorder) Measurements() []Measurement {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Measurement(nil), r.measurements...)
}

// Registry returns the Prometheus registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteSummary renders a table of all measurements.
func (r *Recorder) WriteSummary(w io.Writer) {
	measurements := r.Measurements()
	if len(measurements) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Operation", "Duration (ms)", "Budget (ms)", "Result"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, m := range measurements {
		result := "ok"
		if !m.Passed {
			result = "OVER BUDGET"
		}
		table.Append([]string{
			m.Operation,
			fmt.Sprintf("%.0f", m.DurationMS()),
			fmt.Sprintf("%.0f", m.BudgetMS()),
			result,
		})
	}
	table.Render()
}
