package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/oghmai/internal/infrastructure/logging"
)

const (
	requestIDHeader = "X-Request-Id"
	userIDKey       = "user_id"
)

// RequestLogger attaches a request-scoped log entry to the request context
// and logs every completed request.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		entry := logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Request = c.Request.WithContext(logging.WithEntry(c.Request.Context(), entry))

		c.Next()

		status := c.Writer.Status()
		entry = logging.FromContext(c.Request.Context()).WithFields(logrus.Fields{
			"status":   status,
			"duration": time.Since(start).String(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request completed")
		case status >= http.StatusBadRequest:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}

// RequireUser rejects requests that do not carry the authenticated learner id.
func RequireUser(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(header))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorEnvelope{Error: APIError{
				Message: "missing " + header + " header",
				Code:    "unauthenticated",
			}})
			return
		}
		c.Set(userIDKey, userID)
		c.Request = c.Request.WithContext(logging.WithFields(c.Request.Context(), logrus.Fields{"user_id": userID}))
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
