package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/logging"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDKey = "request_id"
	userKey      = "user"
)

// requestID propagates X-Request-ID, generating one when absent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Header(common.RequestIDHeaderName, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		}
		if u := currentUser(c); u != nil {
			args = append(args, "user_id", u.ID)
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			s.logger.Error(c.Request.Context(), "request", args...)
		case status >= http.StatusBadRequest:
			s.logger.Warn(c.Request.Context(), "request", args...)
		default:
			s.logger.Info(c.Request.Context(), "request", args...)
		}
	}
}

// authRequired resolves the bearer token to exactly one user.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}

		user, err := s.svc.Users.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
