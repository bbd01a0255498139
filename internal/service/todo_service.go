package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

// TodoService coordinates todo operations on behalf of their owner.
type TodoService interface {
	Create(ctx context.Context, creatorID, text string) (*domain.Todo, error)
	List(ctx context.Context, creatorID string) ([]domain.Todo, error)
	Get(ctx context.Context, creatorID, id string) (*domain.Todo, error)
	Update(ctx context.Context, creatorID, id string, patch domain.TodoPatch) (*domain.Todo, error)
	Delete(ctx context.Context, creatorID, id string) (*domain.Todo, error)
}

type todoService struct {
	todos repository.TodoRepository
	now   func() time.Time
}

func NewTodoService(todos repository.TodoRepository) TodoService {
	return &todoService{
		todos: todos,
		now:   time.Now,
	}
}

func (s *todoService) Create(ctx context.Context, creatorID, text string) (*domain.Todo, error) {
	text, err := ValidateTodoText(text)
	if err != nil {
		return nil, err
	}

	todo := &domain.Todo{
		ID:        uuid.NewString(),
		Text:      text,
		CreatorID: creatorID,
	}
	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, storeErr(err)
	}
	return todo, nil
}

func (s *todoService) List(ctx context.Context, creatorID string) ([]domain.Todo, error) {
	todos, err := s.todos.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, storeErr(err)
	}
	return todos, nil
}

func (s *todoService) Get(ctx context.Context, creatorID, id string) (*domain.Todo, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	todo, err := s.todos.Get(ctx, creatorID, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return todo, nil
}

func (s *todoService) Update(ctx context.Context, creatorID, id string, patch domain.TodoPatch) (*domain.Todo, error) {
	if patch.Text != nil {
		text, err := ValidateTodoText(*patch.Text)
		if err != nil {
			return nil, err
		}
		patch.Text = &text
	}

	todo, err := s.Get(ctx, creatorID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(todo, s.now())

	if err := s.todos.Update(ctx, todo); err != nil {
		return nil, storeErr(err)
	}
	return todo, nil
}

func (s *todoService) Delete(ctx context.Context, creatorID, id string) (*domain.Todo, error) {
	todo, err := s.Get(ctx, creatorID, id)
	if err != nil {
		return nil, err
	}
	if err := s.todos.Delete(ctx, creatorID, todo.ID); err != nil {
		return nil, storeErr(err)
	}
	return todo, nil
}
