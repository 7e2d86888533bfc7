package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latency of HTTP requests by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by route and status",
	}, []string{"method", "path", "status"})
)

func Init() {
	prometheus.MustRegister(RequestDuration, RequestsTotal)
}

// Middleware records per-route latency and status counts.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			method := c.Request().Method
			path := c.Path()
			RequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			RequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()

			return err
		}
	}
}
