package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/stock-quote/internal/adapters/http/dto"
)

// CORS returns middleware that adds the permissive cross-origin headers and
// answers preflight requests with 200 and an empty body.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		for name, value := range dto.ResponseHeaders() {
			if name == "Content-Type" {
				continue
			}

			c.Header(name, value)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
