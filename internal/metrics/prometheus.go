package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codejeet_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"route"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codejeet_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"route", "status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codejeet_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codejeet_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	QuestionsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codejeet_questions_returned",
			Help:    "Number of questions returned per listing call",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000},
		},
	)

	ProgressSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codejeet_progress_syncs_total",
			Help: "Total progress sync operations",
		},
		[]string{"status"},
	)

	ProgressUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codejeet_progress_updates_total",
			Help: "Total single progress upserts",
		},
	)

	SolutionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codejeet_solution_requests_total",
			Help: "Total AI solution generations",
		},
		[]string{"status"},
	)

	SolutionTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codejeet_solution_tokens_used",
			Help: "Total provider tokens spent on solutions",
		},
		[]string{"type"},
	)
)

func Init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(QuestionsReturned)
	prometheus.MustRegister(ProgressSyncs)
	prometheus.MustRegister(ProgressUpdates)
	prometheus.MustRegister(SolutionRequests)
	prometheus.MustRegister(SolutionTokensUsed)
}

// Middleware records per-route counters and latency.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(route, strconv.Itoa(c.Response().StatusCode())).Inc()
		return err
	}
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
