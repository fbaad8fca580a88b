package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/stock-quote/internal/adapters/http/dto"
	"github.com/jsamuelsen/stock-quote/internal/platform/logging"
)

// Recovery must be the first middleware. It seeds the request context with
// logger, which later middleware enrich, and turns a panic into the standard
// 500 envelope. The panic value is logged with its stack but never echoed.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if logger != nil {
			c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), logger))
		}

		defer func() {
			if r := recover(); r != nil {
				recovered(c, r, debug.Stack())
			}
		}()

		c.Next()
	}
}

func recovered(c *gin.Context, value any, stack []byte) {
	traceID := dto.GetTraceID(c)

	logging.FromContext(c.Request.Context()).Error("panic recovered",
		slog.Any("error", value),
		slog.String("stack", string(stack)),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
	)

	// Headers are gone; the client sees a truncated response.
	if c.Writer.Written() {
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError,
		dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred").WithTraceID(traceID))
}
