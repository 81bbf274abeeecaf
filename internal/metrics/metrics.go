package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_files_uploaded_total",
		Help: "Number of files uploaded.",
	})

	ViewsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_views_consumed_total",
		Help: "Number of successful view consumptions.",
	})

	ViewsDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_views_denied_total",
		Help: "View requests denied, by reason.",
	}, []string{"reason"})

	FilesDestroyed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_files_destroyed_total",
		Help: "Number of files destroyed (blob and record removed).",
	})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vault_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// GinMiddleware records per-request latency labelled by route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		httpRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
