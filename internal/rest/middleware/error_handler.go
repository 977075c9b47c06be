package middleware

import (
	"github.com/gin-gonic/gin"

	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/logger"
)

// ErrorHandler converts errors attached via c.Error into the standard error
// envelope, mapping the error's mark to an HTTP status.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)
		if status >= 500 {
			log.Errorw("request failed",
				"error", err,
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(status, ierr.NewErrorResponse(err))
	}
}
