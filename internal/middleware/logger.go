package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/mtmengine/internal/logger"
)

// RequestLogger logs one structured line per request once the handler chain
// has run: request id, method, matched route, status, latency and client IP.
// Requests that end with gin errors are logged at warn with the first error.
//
// Usage:
//
//	router.Use(middleware.RequestID(), middleware.RequestLogger())
func RequestLogger() gin.HandlerFunc {
	log := logger.With("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		rid, _ := c.Get(RequestIDKey)
		ev := log.Info()
		if len(c.Errors) > 0 {
			ev = log.Warn().Str("error", c.Errors[0].Error())
		}
		ev.Str("request_id", toString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("route", c.FullPath()).
			Int("status", c.Writer.Status()).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
