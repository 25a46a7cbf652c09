package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
)

// ErrorHandler renders the last error a handler recorded with c.Error as
// {"error":{"code","message"}}. Binding failures become INVALID_INPUT and
// anything that is not an *AppError becomes a generic INTERNAL_ERROR.
// Nothing is rendered when the handler already wrote a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		last := c.Errors.Last()
		log := logger.Named("http").With(
			"request_id", RequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		var appErr *apperrors.AppError
		switch {
		case errors.As(last.Err, &appErr):
			if appErr.Internal != nil {
				log.Errorw("request failed",
					"code", appErr.Code,
					"internal", appErr.Internal.Error(),
				)
			}
		case last.IsType(gin.ErrorTypeBind):
			appErr = apperrors.WithMessage(apperrors.ErrInvalidInput, last.Err.Error())
		default:
			log.Errorw("unexpected error", "error", last.Err.Error())
			appErr = apperrors.ErrInternalServer
		}

		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
	}
}
