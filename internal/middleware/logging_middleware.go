package middleware

import (
	"time"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDKey: ключ gin.Context, под которым лежит trace-ID запроса
const TraceIDKey = "trace_id"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.

// Служебные маршруты (health, metrics) пишутся только на уровне DEBUG.
type RequestLogger struct {
	logger *logging.Logger
	quiet  map[string]struct{}
}

// NewRequestLogger создаёт middleware; при logger == nil используется глобальный логгер
func NewRequestLogger(logger *logging.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.Default()
	}
	return &RequestLogger{
		logger: logger,
		quiet:  map[string]struct{}{"/health": {}, "/metrics": {}},
	}
}

// Handler возвращает gin.HandlerFunc для router.Use()
func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Пытаемся извлечь trace-id из OpenTelemetry, если уже создан.
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)
		c.Header("X-Trace-Id", traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		clientIP := c.ClientIP()

		rl.logger.Debug("[HTTP] ▶ %s %s ip=%s trace=%s", method, path, clientIP, traceID)

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		if _, quiet := rl.quiet[path]; quiet && status < 400 {
			rl.logger.Debug("[HTTP] ◀ %s %s %d %s trace=%s", method, path, status, latency, traceID)
			return
		}
		if status >= 500 {
			rl.logger.Error("[HTTP] ◀ %s %s %d %s trace=%s", method, path, status, latency, traceID)
			return
		}
		rl.logger.Info("[HTTP] ◀ %s %s %d %s trace=%s", method, path, status, latency, traceID)
	}
}
