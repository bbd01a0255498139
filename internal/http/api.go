package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-server/internal/ratelimit"
	"todo-server/internal/service"
)

// AuthHeader carries the session token in both directions.
const AuthHeader = "x-auth"

// TokenService is the subset of auth.TokenService the HTTP layer relies on.
type TokenService interface {
	Issue(ctx context.Context, userID, access string) (string, error)
	Verify(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, userID, token string) error
}

// Deps groups the collaborators a Handler needs.
type Deps struct {
	Users   service.UserService
	Todos   service.TodoService
	Exports service.ExportService
	Tokens  TokenService
	Limiter ratelimit.Limiter
	Logger  *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	todos   service.TodoService
	exports service.ExportService
	tokens  TokenService
	limiter ratelimit.Limiter
	logger  *logrus.Logger
}

func NewHandler(deps Deps) *Handler {
	h := &Handler{
		users:   deps.Users,
		todos:   deps.Todos,
		exports: deps.Exports,
		tokens:  deps.Tokens,
		limiter: deps.Limiter,
		logger:  deps.Logger,
	}
	if h.limiter == nil {
		h.limiter = ratelimit.Noop{}
	}
	if h.exports == nil {
		h.exports = service.NewExportService(h.todos, nil, "")
	}
	if h.logger == nil {
		h.logger = logrus.New()
	}
	return h
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	router.POST("/users", h.createUser)
	router.POST("/users/login", h.login)

	authed := router.Group("/", Authenticate(h.tokens, h.logger))
	{
		authed.GET("/users/me", h.me)
		authed.DELETE("/users/me/token", h.logout)

		authed.POST("/todos", h.createTodo)
		authed.GET("/todos", h.listTodos)
		authed.POST("/todos/export", h.exportTodos)
		authed.GET("/todos/exports", h.listExports)
		authed.DELETE("/todos/exports", h.purgeExports)
		authed.GET("/todos/:id", h.getTodo)
		authed.PATCH("/todos/:id", h.updateTodo)
		authed.DELETE("/todos/:id", h.deleteTodo)
	}
}
