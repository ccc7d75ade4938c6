package handlers

import (
	"errors"
	"net/http"

	"water_tank/internal/repository"
	"water_tank/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		if httpCode >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondServiceError maps service errors to a status code; the message of
// client errors is passed through, server errors get fallback.
func (h *Handler) respondServiceError(c *gin.Context, fallback, logKey string, err error, kv ...interface{}) {
	switch {
	case errors.Is(err, repository.ErrTankNotFound):
		h.logAndJSONError(c, http.StatusNotFound, err.Error(), logKey, err, kv...)
	case errors.Is(err, service.ErrInvalidTank),
		errors.Is(err, service.ErrInvalidSettings),
		errors.Is(err, service.ErrUnsupportedFormat):
		h.logAndJSONError(c, http.StatusBadRequest, err.Error(), logKey, err, kv...)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, fallback, logKey, err, kv...)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}
