package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "questionbank_sessions_active",
			Help: "Number of open question bank editing sessions",
		},
	)

	ConfigurationLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questionbank_configuration_loads_total",
			Help: "Configuration loads by outcome",
		},
		[]string{"result"},
	)

	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questionbank_submissions_total",
			Help: "Question bank submissions by outcome",
		},
		[]string{"result"},
	)

	ImageUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questionbank_image_uploads_total",
			Help: "Block image uploads by outcome",
		},
		[]string{"result"},
	)

	Reviews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questionbank_reviews_total",
			Help: "Question bank review decisions",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Init 可重复调用，只注册一次
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			ActiveSessions,
			ConfigurationLoads,
			Submissions,
			ImageUploads,
			Reviews,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
