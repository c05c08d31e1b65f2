package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/primegen"
)

const namespace = "primegen"

// Collector implements primegen.MetricsCollector on Prometheus metrics.
type Collector struct {
	segmentLatency prometheus.Histogram
	segmentSlots   prometheus.Counter
	segmentPrimes  prometheus.Counter
	boundGrowths   prometheus.Counter
	maxBound       prometheus.Gauge
	runs           *prometheus.CounterVec
	runLatency     prometheus.Histogram
	primesFound    prometheus.Counter
	exports        *prometheus.CounterVec
	exportLatency  prometheus.Histogram
	exportedLines  prometheus.Counter
}

var _ primegen.MetricsCollector = (*Collector)(nil)

// NewCollector registers the primegen metrics with reg. A nil reg selects
// prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		segmentLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_duration_seconds",
			Help:      "Time to sieve and store one window",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		segmentSlots: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segment_slots_total",
			Help:      "Odd values covered by sieved windows",
		}),
		segmentPrimes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segment_primes_total",
			Help:      "Primes stored from sieved windows",
		}),
		boundGrowths: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bound_growths_total",
			Help:      "Upper bound growths after exhaustion",
		}),
		maxBound: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bound_last_grown_to",
			Help:      "Upper bound after the last growth",
		}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished generations by terminal state",
		}, []string{"state"}),
		runLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of finished generations",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		primesFound: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "primes_found_total",
			Help:      "Primes stored by finished generations",
		}),
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Finished exports by status",
		}, []string{"status"}),
		exportLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Wall time of finished exports",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		exportedLines: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exported_entries_total",
			Help:      "Entries written by exports",
		}),
	}
}

func (c *Collector) RecordSegment(d time.Duration, slots uint64, primes int) {
	c.segmentLatency.Observe(d.Seconds())
	c.segmentSlots.Add(float64(slots))
	c.segmentPrimes.Add(float64(primes))
}

func (c *Collector) RecordBoundGrowth(_, to uint64) {
	c.boundGrowths.Inc()
	c.maxBound.Set(float64(to))
}

func (c *Collector) RecordRun(state primegen.State, found uint64, d time.Duration, _ error) {
	c.runs.WithLabelValues(state.String()).Inc()
	c.runLatency.Observe(d.Seconds())
	c.primesFound.Add(float64(found))
}

func (c *Collector) RecordExport(written uint64, d time.Duration, err error) {
	status := "success"
	switch {
	case primegen.IsInterrupted(err):
		status = "interrupted"
	case err != nil:
		status = "error"
	}
	c.exports.WithLabelValues(status).Inc()
	c.exportLatency.Observe(d.Seconds())
	c.exportedLines.Add(float64(written))
}
