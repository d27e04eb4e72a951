package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizbank/qbank-backend/internal/apperror"
)

// ErrorHandler is the single normalization point for failures. Handlers
// attach errors with c.Error and return; this middleware renders the last
// one as {"error": message}. Anything without an explicit status becomes a
// generic 500. Errors are logged here and never re-thrown.
func ErrorHandler(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if appErr := apperror.FromError(err); appErr != nil {
			log.Debug().
				Err(err).
				Str("kind", string(appErr.Kind)).
				Str("path", c.Request.URL.Path).
				Msg("Request failed")
			c.JSON(appErr.Status, gin.H{"error": appErr.Message})
			return
		}

		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred"})
	}
}

// NotFoundHandler renders unmatched routes in the same error shape.
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	}
}
