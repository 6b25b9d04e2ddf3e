package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthEvents counts session lifecycle events by outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnest_auth_events_total",
		Help: "Authentication events by type and outcome",
	}, []string{"event", "outcome"})

	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnest_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})

	// FeedPageSize observes how many posts each feed page returned.
	FeedPageSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialnest_feed_page_size",
		Help:    "Number of posts returned per feed page",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	}, []string{"feed"})
)

var (
	promOnce sync.Once
	promMW   *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the HTTP request collector. The collector registers with the
// default registry, so it is built once per process and shared by every app.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMW = fiberprometheus.New(serviceName)
	})
	return promMW
}

// MetricsMiddleware records request counts and latency. Health probes and the
// scrape endpoint itself are skipped.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Path() {
		case "/metrics", "/health/live", "/health/ready":
			return c.Next()
		}
		return prom.Middleware(c)
	}
}
