package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ohare93/delegate/internal/domain"
)

const (
	headerRequestID = "X-Request-ID"

	ctxRequestID = "request_id"
	ctxActor     = "actor"
)

// requestID propagates an incoming X-Request-ID or assigns a new one
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := s.log.WithFields(logrus.Fields{
			"request_id": c.GetString(ctxRequestID),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		})
		if actor, ok := actorOf(c); ok {
			entry = entry.WithField("actor_id", actor.ID)
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		default:
			entry.Info("request")
		}
	}
}

// basicAuth checks HTTP Basic credentials on every request
func (s *Server) basicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		login, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="delegate"`)
			s.abortWithError(c, &domain.Error{Kind: domain.ErrUnauthorized, Msg: "authentication required"})
			return
		}

		user, err := s.auth.Authenticate(c.Request.Context(), login, password)
		if err != nil {
			c.Header("WWW-Authenticate", `Basic realm="delegate"`)
			s.abortWithError(c, err)
			return
		}

		c.Set(ctxActor, user)
		c.Next()
	}
}

func actorOf(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(ctxActor)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}

// mustActor returns the authenticated user; only valid behind basicAuth
func mustActor(c *gin.Context) *domain.User {
	user, _ := actorOf(c)
	return user
}
