// Package server exposes the tracker over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ohare93/delegate/internal/domain"
	"github.com/ohare93/delegate/internal/views"
)

const shutdownTimeout = 5 * time.Second

// Tasks is the task lifecycle the handlers drive
type Tasks interface {
	CreateTask(ctx context.Context, actorID int64, in domain.NewTask) (*domain.Task, error)
	GetTask(ctx context.Context, actorID, taskID int64) (*domain.Task, error)
	UpdateTask(ctx context.Context, actorID, taskID int64, patch domain.Patch) (*domain.Task, error)
	ListTasks(ctx context.Context, actorID int64, mode views.Mode) (*views.Result, error)
}

// Users is the identity directory the handlers read and register into
type Users interface {
	Register(ctx context.Context, in domain.NewUser) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	SubordinatesOf(ctx context.Context, leaderID int64) ([]*domain.User, error)
}

// Authenticator resolves credentials to a user
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (*domain.User, error)
}

// Server is the HTTP API
type Server struct {
	tasks  Tasks
	users  Users
	auth   Authenticator
	log    *logrus.Entry
	router *gin.Engine
}

// New builds the router. Call gin.SetMode before New to change gin's mode.
func New(tasks Tasks, users Users, auth Authenticator, log *logrus.Entry) *Server {
	router := gin.New()

	s := &Server{
		tasks:  tasks,
		users:  users,
		auth:   auth,
		log:    log,
		router: router,
	}

	router.Use(gin.Recovery(), s.requestID(), s.accessLog())

	api := router.Group("/api")
	{
		api.GET("/health", s.healthAction)
		api.POST("/auth/login", s.loginAction)
		api.POST("/users", s.registerUserAction)
	}

	authed := api.Group("", s.basicAuth())
	{
		authed.GET("/auth/check", s.checkAuthAction)

		authed.GET("/users/:id", s.getUserAction)
		authed.GET("/users/:id/subordinates", s.listSubordinatesAction)

		authed.GET("/tasks", s.listTasksAction)
		authed.GET("/tasks/:id", s.getTaskAction)
		authed.POST("/tasks", s.createTaskAction)
		authed.PUT("/tasks/:id", s.updateTaskAction)
	}

	return s
}

// Handler returns the router as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

func (s *Server) healthAction(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
