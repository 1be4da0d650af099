// Package metrics exposes the Prometheus collectors used across the app
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pool_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// DownloadsTotal counts quota-charged video downloads, labelled by
	// delivery kind (single or bulk)
	DownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_downloads_total",
		Help: "Quota-charged video downloads",
	}, []string{"kind"})

	// CampaignEmailsTotal counts campaign email deliveries by outcome
	CampaignEmailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_campaign_emails_total",
		Help: "Campaign emails attempted",
	}, []string{"status"})

	// ArchivesBuilt counts finished bulk archives by final status
	ArchivesBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_bulk_archives_total",
		Help: "Bulk archive builds finished",
	}, []string{"status"})
)

// Middleware records request counts and latency per route. Uses the
// route template, not the raw path, to keep label cardinality bounded
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
