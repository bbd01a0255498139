package repository

import (
	"context"

	"todo-server/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	AddToken(ctx context.Context, userID string, token domain.Token) error
	RemoveToken(ctx context.Context, userID, token string) error
}
