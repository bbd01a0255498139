package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"todo-server/internal/domain"
	"todo-server/internal/service"
)

// writeError maps an error onto a status code. Which kind of auth failure
// occurred is logged but never returned.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		h.logger.WithError(err).Debug("unauthorized")
		c.JSON(http.StatusUnauthorized, gin.H{})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{})
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.logger.WithError(err).Warn("store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
	case errors.Is(err, service.ErrExportDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func writeAuthFailure(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{})
}
