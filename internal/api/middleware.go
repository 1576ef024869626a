package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rawatinap/billing-server/internal/models"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequireLogin returns a Gin middleware that sends visitors without a logged
// in session to the login page.
func RequireLogin(sessions *SessionStore, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentSession(c).Authenticated() {
			c.Next()
			return
		}

		if err := sessions.AddFlash(c, models.FlashError, "please log in first"); err != nil {
			logger.Error().Err(err).Msg("failed to save session")
		}
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}

// RequestID assigns every request an id, reusing the client's when present
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

// RequestLogger logs one line per request
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		evt := logger.Info()
		if err := c.Errors.Last(); err != nil {
			evt = logger.Error().Err(err.Err)
		}

		evt.
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("remote_ip", c.ClientIP()).
			Msg("request")
	}
}
