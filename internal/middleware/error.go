package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "drinklog/internal/errors"
	"drinklog/internal/logger"
)

// WriteError renders err as {"error":{"code","message"}}. AppErrors keep
// their status and code; anything else is logged and reported as a generic
// internal error so details never leak to clients.
func WriteError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"message", appErr.Message,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// abortWithError writes err and stops the handler chain.
func abortWithError(c *gin.Context, err error) {
	WriteError(c, err)
	c.Abort()
}

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context with c.Error into JSON error responses, unless the handler already
// wrote a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// Process the last error (most relevant in a middleware chain)
		WriteError(c, c.Errors.Last().Err)
	}
}
