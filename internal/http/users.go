package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"todo-server/internal/domain"
	"todo-server/internal/service"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{ID: user.ID, Email: user.Email}
}

func (h *Handler) createUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := h.tokens.Issue(c.Request.Context(), user.ID, domain.AccessAuth)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header(AuthHeader, token)
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	key := service.NormalizeEmail(req.Email)
	allowed, err := h.limiter.Allow(c.Request.Context(), key)
	if err != nil {
		h.logger.WithError(err).Warn("login rate limiter unavailable")
		allowed = true
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
			return
		}
		h.writeError(c, err)
		return
	}

	if err := h.limiter.Reset(c.Request.Context(), key); err != nil {
		h.logger.WithError(err).Warn("reset login rate limit")
	}

	token, err := h.tokens.Issue(c.Request.Context(), user.ID, domain.AccessAuth)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header(AuthHeader, token)
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) me(c *gin.Context) {
	userID, _ := currentUser(c)
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) logout(c *gin.Context) {
	userID, token := currentUser(c)
	if err := h.tokens.Revoke(c.Request.Context(), userID, token); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
