package manager

import "github.com/prometheus/client_golang/prometheus"

const (
	metricsNamespace = "expertchat"
	metricsSubsystem = "cache"
)

var (
	loadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "loads_total",
		Help:      "Successful expert loads.",
	}, []string{"expert"})

	loadFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "load_failures_total",
		Help:      "Expert loads that returned an error.",
	}, []string{"expert"})

	evictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "evictions_total",
		Help:      "Resident experts released to make room for another.",
	})

	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "hits_total",
		Help:      "Requests served by the already resident expert.",
	})

	queueRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "queue_rejections_total",
		Help:      "Generations rejected because the queue was full or the wait timed out.",
	})

	loadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "load_duration_seconds",
		Help:      "Time spent loading expert weights.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	resident = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "resident_models",
		Help:      "Number of resident experts (0 or 1).",
	})
)

func init() {
	prometheus.MustRegister(loadsTotal, loadFailures, evictionsTotal, cacheHits, queueRejections, loadDuration, resident)
}
