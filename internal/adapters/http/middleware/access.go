package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/stock-quote/internal/platform/logging"
)

// AccessLog writes one line per API request once it completes, at warn for
// 4xx and error for 5xx. Health and metrics routes under /-/ are not logged.
// The context logger already carries the request, correlation and trace IDs;
// fallback is used when an earlier middleware did not seed one.
func AccessLog(fallback *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/-/") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		ctx := c.Request.Context()
		logger := logging.FromContext(ctx)
		if !logging.HasLogger(ctx) && fallback != nil {
			logger = fallback
		}

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Int64("latency_ms", elapsed.Milliseconds()),
			slog.Int("bytes", c.Writer.Size()),
			slog.String("client_ip", c.ClientIP()),
		}

		if symbol := requestedSymbol(c); symbol != "" {
			attrs = append(attrs, slog.String("symbol", symbol))
		}

		logger.LogAttrs(ctx, levelFor(status), "request completed", attrs...)
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// requestedSymbol reads the symbol from the path or the query string. Bodies
// are not inspected.
func requestedSymbol(c *gin.Context) string {
	if s := c.Param("symbol"); s != "" {
		return s
	}

	return c.Query("symbol")
}
