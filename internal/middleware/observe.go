package middleware

import (
	"strconv"
	"time"

	"orderlyflow/internal/logger"
	"orderlyflow/internal/metrics"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request at a level picked by status.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = logger.Or(log).WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l := log
		if id := UserID(c); id != "" {
			l = l.WithUserID(id)
		}
		l.LogHTTPRequest(c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.Writer.Status(), time.Since(start))
	}
}

// Metrics records request counts and latency by route template.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
