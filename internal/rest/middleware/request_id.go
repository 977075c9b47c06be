package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/memberbase/memberbase/internal/types"
)

const headerRequestID = "X-Request-ID"

// RequestIDMiddleware stamps every request with an ID, honoring one supplied
// by the caller, and echoes it on the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST)
		}

		ctx := types.SetRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(headerRequestID, requestID)
		c.Next()
	}
}
