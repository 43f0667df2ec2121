package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueueDepth is the number of jobs currently staged at each level.
	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jobsched_queue_depth",
			Help: "Number of jobs currently staged, by level",
		},
		[]string{"level"},
	)

	FreeCPU = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobsched_free_cpu",
			Help: "Free CPU cores currently tracked by the capacity monitor",
		},
	)

	FreeMem = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobsched_free_mem",
			Help: "Free memory units currently tracked by the capacity monitor",
		},
	)

	JobsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsched_jobs_ingested_total",
			Help: "Total number of new-job events consumed, by outcome",
		},
		[]string{"outcome"}, // accepted, malformed, unknown_job_type
	)

	JobsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsched_jobs_dispatched_total",
			Help: "Total number of jobs dispatched to the execution backend, by transport outcome",
		},
		[]string{"outcome"}, // ok, transport_error
	)

	JobsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsched_jobs_completed_total",
			Help: "Total number of job-complete events consumed",
		},
	)

	DrainLoopEmpty = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsched_drain_loop_empty_total",
			Help: "Total number of drain loops that ended because a dispatch attempt found no feasible job",
		},
	)

	DispatchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobsched_dispatch_latency_seconds",
			Help:    "Time taken to serialize and POST a job to the execution backend",
			Buckets: prometheus.DefBuckets,
		},
	)

	SelectionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobsched_selection_latency_seconds",
			Help:    "Time taken for one queue-select + job-select attempt",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReallocationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobsched_reallocation_duration_seconds",
			Help:    "Time taken for one reallocate() pass across all levels",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReallocationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsched_reallocation_cycles_total",
			Help: "Total number of reallocate() passes completed",
		},
	)

	JobsPromoted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsched_jobs_promoted_total",
			Help: "Total number of jobs moved to a higher-priority level during reallocation",
		},
	)
)

func init() {
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(FreeCPU)
	prometheus.MustRegister(FreeMem)
	prometheus.MustRegister(JobsIngested)
	prometheus.MustRegister(JobsDispatched)
	prometheus.MustRegister(JobsCompleted)
	prometheus.MustRegister(DrainLoopEmpty)
	prometheus.MustRegister(DispatchLatency)
	prometheus.MustRegister(SelectionLatency)
	prometheus.MustRegister(ReallocationDuration)
	prometheus.MustRegister(ReallocationCyclesTotal)
	prometheus.MustRegister(JobsPromoted)
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
