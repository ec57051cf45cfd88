package middleware

import (
	"net/http"

	"github.com/Tandez/vectorflow/internal/auth"
	"github.com/gin-gonic/gin"
)

// VendorKeyHeader is the vendor-specific alternative to Authorization.
const VendorKeyHeader = "X-VectorFlow-Key"

// Auth returns a middleware that rejects requests without a valid internal
// API key before any handler side effect. The credential is read from the
// Authorization header or the vendor key header.
func Auth(validator auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Authorization")
		if key == "" {
			key = c.GetHeader(VendorKeyHeader)
		}

		if key == "" || !validator.Validate(key) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		c.Next()
	}
}
