package middleware

import (
	"time"

	"legaldoc-pipeline/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware provides OpenTelemetry tracing for Gin.
func TracingMiddleware() gin.HandlerFunc {
	return otelgin.Middleware("legaldoc-pipeline")
}

// EnrichTrace enriches traces with request and user attributes.
func EnrichTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())

		if userID, exists := c.Get("user_id"); exists {
			if uid, ok := userID.(string); ok {
				span.SetAttributes(attribute.String("user.id", uid))
			}
		}

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.url", c.Request.URL.String()),
			attribute.String("http.user_agent", c.Request.UserAgent()),
			attribute.String("http.client_ip", c.ClientIP()),
		)

		c.Next()

		// user_id is set by the route group's auth middleware, which runs later.
		if userID, exists := c.Get("user_id"); exists {
			if uid, ok := userID.(string); ok {
				span.SetAttributes(attribute.String("user.id", uid))
			}
		}

		span.SetAttributes(
			attribute.Int("http.response.status_code", c.Writer.Status()),
			attribute.Int("http.response.size", c.Writer.Size()),
		)
	}
}

// MetricsMiddleware records request metrics.
func MetricsMiddleware(metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()
		statusStr := "success"
		if status >= 400 {
			statusStr = "error"
		}

		metrics.RecordRequest(
			c.Request.Method,
			c.Request.URL.Path,
			statusStr,
			duration,
		)
	}
}

// ManualTracing starts a span for the full request, carrying request_id.
func ManualTracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		tracer := otel.Tracer("legaldoc-pipeline")

		ctx, span := tracer.Start(ctx, "http.request")
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		// request_id is set by RequestIDMiddleware, which runs after this one.
		requestID := GetRequestID(c)
		if requestID == "" {
			requestID = generateRequestID()
		}
		span.SetAttributes(attribute.String("request.id", requestID))
	}
}
