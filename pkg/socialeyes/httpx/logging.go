package httpx

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const contextKeyLogger = "logger"

// NewLogger creates a JSON structured logger with an explicit log level
func NewLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo

	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)
	return log
}

// RequestLogger logs one record per request and exposes a request-scoped
// logger to handlers through Logger.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.With("request_id", c.GetString(ContextKeyRequestID))
		c.Set(contextKeyLogger, reqLog)

		c.Next()

		status := c.Writer.Status()
		level, result := requestLogMeta(status)
		attrs := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"result", result,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if userID, ok := c.Get(ContextKeyUserID); ok {
			attrs = append(attrs, "user_id", userID)
		}
		reqLog.Log(c.Request.Context(), level, "http.request", attrs...)
	}
}

// Logger returns the request-scoped logger, or the default logger outside RequestLogger
func Logger(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(contextKeyLogger); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

func requestLogMeta(status int) (slog.Level, string) {
	switch {
	case status >= 500:
		return slog.LevelError, "server_error"
	case status >= 400:
		return slog.LevelWarn, "client_error"
	case status >= 300:
		return slog.LevelInfo, "redirect"
	}
	return slog.LevelInfo, "success"
}
