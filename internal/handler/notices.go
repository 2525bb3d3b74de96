package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cardattend/internal/auth"
	"cardattend/internal/scan"
	"cardattend/internal/store"
	"cardattend/internal/validate"
)

// Notice levels.
const (
	levelSuccess = "success"
	levelInfo    = "info"
	levelWarning = "warning"
	levelError   = "error"
)

// Notice is the user-visible message attached to every response that reports
// an outcome.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func notice(c *gin.Context, status int, level, msg string, extra gin.H) {
	body := gin.H{"notice": Notice{Level: level, Message: msg}}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

func abortNotice(c *gin.Context, status int, level, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"notice": Notice{Level: level, Message: msg}})
}

func badBody(c *gin.Context) {
	notice(c, http.StatusBadRequest, levelError, "request body is not valid JSON", nil)
}

// pathID returns the :id parameter, answering 404 when it is not a UUID.
func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		notice(c, http.StatusNotFound, levelWarning, "not found", nil)
		return "", false
	}
	return id, true
}

// fail maps an error to a notice. Unexpected errors are logged and hidden.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		notice(c, http.StatusBadRequest, levelError, verr.Error(), gin.H{"fields": verr.Fields})
	case errors.Is(err, store.ErrNotFound):
		notice(c, http.StatusNotFound, levelWarning, "not found", nil)
	case store.InvalidText(err):
		notice(c, http.StatusBadRequest, levelError, "malformed id in request", nil)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		notice(c, http.StatusUnauthorized, levelError, err.Error(), nil)
	case errors.Is(err, scan.ErrNotScanning):
		notice(c, http.StatusConflict, levelWarning, "scanning mode is off", nil)
	default:
		h.log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		notice(c, http.StatusInternalServerError, levelError, "something went wrong, please try again", nil)
	}
}
