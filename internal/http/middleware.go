package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-server/internal/auth"
)

const userIDKey = "user_id"

// Authenticate rejects requests whose x-auth token does not resolve to a
// current session with 401 and an empty JSON object. On success the user id
// is attached to both the gin context and the request context.
func Authenticate(tokens TokenService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(AuthHeader))

		userID, err := tokens.Verify(c.Request.Context(), token)
		if err != nil {
			logger.WithError(err).WithField("path", c.FullPath()).Debug("request not authenticated")
			writeAuthFailure(c, err)
			return
		}

		c.Set(userIDKey, userID)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), userID, token))
		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}
		if id, ok := auth.UserIDFromContext(c.Request.Context()); ok {
			fields[userIDKey] = id
		}
		logger.WithFields(fields).Info("request")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+AuthHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", AuthHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func currentUser(c *gin.Context) (userID, token string) {
	userID, _ = auth.UserIDFromContext(c.Request.Context())
	token, _ = auth.TokenFromContext(c.Request.Context())
	return userID, token
}
