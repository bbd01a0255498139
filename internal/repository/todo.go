package repository

import (
	"context"

	"todo-server/internal/domain"
)

// TodoRepository exposes persistence operations for todos. Every lookup is
// scoped to the owning user; a todo owned by someone else is ErrNotFound.
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) error
	Get(ctx context.Context, creatorID, id string) (*domain.Todo, error)
	ListByCreator(ctx context.Context, creatorID string) ([]domain.Todo, error)
	Update(ctx context.Context, todo *domain.Todo) error
	Delete(ctx context.Context, creatorID, id string) error
}
