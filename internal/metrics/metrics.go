package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Donation outcome labels
const (
	OutcomeAccepted = "accepted"
	OutcomeCapacity = "capacity_exceeded"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Metrics holds the application metric set
type Metrics struct {
	logger *zap.Logger

	registry *prometheus.Registry

	signUps   prometheus.Counter
	donations *prometheus.CounterVec

	requestDuration *prometheus.HistogramVec
}

// New creates and registers the metric set
func New(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),

		signUps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "signups_total",
				Help: "Total number of successful sign-ups",
			},
		),

		donations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "donations_total",
				Help: "Donation submissions by outcome",
			},
			[]string{"outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	m.registry.MustRegister(m.signUps, m.donations, m.requestDuration)
	return m
}

// RecordSignUp increments the sign-up counter
func (m *Metrics) RecordSignUp() {
	m.signUps.Inc()
}

// RecordDonation increments the donation counter for an outcome
func (m *Metrics) RecordDonation(outcome string) {
	m.donations.WithLabelValues(outcome).Inc()
	if outcome == OutcomeError {
		m.logger.Warn("donation failed", zap.String("outcome", outcome))
	}
}

// Middleware observes request durations per route and logs server errors
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		duration := time.Since(start)
		m.requestDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).
			Observe(duration.Seconds())

		if status >= http.StatusInternalServerError {
			m.logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", path),
				zap.Int("status", status),
				zap.Duration("duration", duration),
			)
		}
	}
}

// Handler serves the scrape endpoint
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(m.logger),
	})
	return gin.WrapH(h)
}
