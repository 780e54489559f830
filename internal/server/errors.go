package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ohare93/delegate/internal/domain"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	Field  string `json:"field,omitempty"`
}

// statusOf maps an error kind to an HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(err error) (int, ErrorResponse) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		return status, ErrorResponse{Error: "internal server error"}
	}

	resp := ErrorResponse{Error: err.Error()}
	var de *domain.Error
	if errors.As(err, &de) {
		if de.Msg != "" {
			resp.Error = de.Msg
		}
		resp.Reason = string(de.Reason)
		resp.Field = de.Field
	}
	return status, resp
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status, resp := errorResponse(err)
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("request_id", c.GetString(ctxRequestID)).Error("internal error")
	}
	c.AbortWithStatusJSON(status, resp)
}
