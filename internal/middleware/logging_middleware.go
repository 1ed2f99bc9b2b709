package middleware

import (
	"time"

	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDKey - ключ trace-ID в gin.Context
const TraceIDKey = "trace_id"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет итог запроса в лог.
// Запросы к тихим маршрутам (опрос /health, сбор /metrics) пишутся на уровне Debug.
type RequestLogger struct {
	logger *logging.Logger
	quiet  map[string]bool
}

// NewRequestLogger создаёт middleware; nil - логгер по умолчанию
func NewRequestLogger(logger *logging.Logger, quietPaths ...string) *RequestLogger {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}
	return &RequestLogger{logger: logger, quiet: quiet}
}

func (rl *RequestLogger) log() *logging.Logger {
	if rl.logger == nil {
		return logging.Default()
	}
	return rl.logger
}

// traceID берёт trace-id из OpenTelemetry, иначе генерирует UUID
func traceID(c *gin.Context) string {
	if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.IsValid() {
		return sc.TraceID().String()
	}
	return uuid.NewString()
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := traceID(c)
		c.Set(TraceIDKey, id)
		c.Header("X-Trace-Id", id)

		start := time.Now()
		c.Next()

		path := routeOf(c)
		status := c.Writer.Status()
		logf := rl.log().Info
		if rl.quiet[path] && status < 400 {
			logf = rl.log().Debug
		}
		logf("[HTTP] %s %s %d %s trace=%s", c.Request.Method, path, status, time.Since(start), id)
	}
}

// routeOf возвращает шаблон маршрута; для несматченных запросов - "unmatched",
// чтобы произвольные пути не плодили метки и записи в логах
func routeOf(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}
