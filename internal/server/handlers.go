package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ohare93/delegate/internal/directory"
	"github.com/ohare93/delegate/internal/domain"
	"github.com/ohare93/delegate/internal/views"
)

const maxBodySize = 1 << 20

var errInvalidBody = domain.Invalid("", "invalid request structure")

// readJSON decodes the request body into dst. Domain errors from custom
// decoders pass through; anything else becomes a generic validation error.
func readJSON(c *gin.Context, dst any) error {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
	defer c.Request.Body.Close()
	if err != nil {
		return errInvalidBody
	}
	if err := json.Unmarshal(body, dst); err != nil {
		if statusOf(err) == http.StatusBadRequest {
			return err
		}
		return errInvalidBody
	}
	return nil
}

func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid(name, "invalid %s: %q", name, c.Param(name))
	}
	return id, nil
}

// --- auth ---

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (s *Server) loginAction(c *gin.Context) {
	const op = "server.loginAction"
	log := s.log.WithField("operation", op)

	var req loginRequest
	if err := readJSON(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}
	if req.Login == "" || req.Password == "" {
		s.abortWithError(c, domain.Invalid("", "login and password are required"))
		return
	}

	user, err := s.auth.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		log.WithField("login", req.Login).Info("login rejected")
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "login successful",
		"user":    user.Public(),
	})
}

func (s *Server) checkAuthAction(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user":          mustActor(c).Public(),
	})
}

// --- users ---

func (s *Server) registerUserAction(c *gin.Context) {
	const op = "server.registerUserAction"
	log := s.log.WithField("operation", op)

	var req domain.NewUser
	if err := readJSON(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}

	user, err := s.users.Register(c.Request.Context(), req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	log.WithField("user_id", user.ID).Info("user registered")
	c.JSON(http.StatusCreated, gin.H{
		"message": "user created",
		"user":    user.Public(),
	})
}

func (s *Server) getUserAction(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	user, err := s.users.FindByID(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

func (s *Server) listSubordinatesAction(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	subs, err := s.users.SubordinatesOf(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	directory.SortForDisplay(subs)

	out := make([]*domain.User, len(subs))
	for i, u := range subs {
		out[i] = u.Public()
	}
	c.JSON(http.StatusOK, out)
}

// --- tasks ---

func (s *Server) listTasksAction(c *gin.Context) {
	mode, err := views.ParseMode(c.Query("group"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	result, err := s.tasks.ListTasks(c.Request.Context(), mustActor(c).ID, mode)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result.Payload())
}

func (s *Server) getTaskAction(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	task, err := s.tasks.GetTask(c.Request.Context(), mustActor(c).ID, id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) createTaskAction(c *gin.Context) {
	var req domain.NewTask
	if err := readJSON(c, &req); err != nil {
		s.abortWithError(c, err)
		return
	}

	task, err := s.tasks.CreateTask(c.Request.Context(), mustActor(c).ID, req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "task created",
		"task":    task,
	})
}

func (s *Server) updateTaskAction(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	var patch domain.Patch
	if err := readJSON(c, &patch); err != nil {
		s.abortWithError(c, err)
		return
	}

	task, err := s.tasks.UpdateTask(c.Request.Context(), mustActor(c).ID, id, patch)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "task updated",
		"task":    task,
	})
}
