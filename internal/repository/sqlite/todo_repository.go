package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) repository.TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	now := time.Now().UTC()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, `
INSERT INTO todos (id, text, completed, completed_at, creator_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		todo.ID,
		todo.Text,
		todo.Completed,
		nullTime(todo.CompletedAt),
		todo.CreatorID,
		todo.CreatedAt,
		todo.UpdatedAt,
	); err != nil {
		return repository.Unavailable(fmt.Errorf("insert todo: %w", err))
	}
	return nil
}

func (r *TodoRepository) Get(ctx context.Context, creatorID, id string) (*domain.Todo, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, text, completed, completed_at, creator_id, created_at, updated_at
FROM todos
WHERE id = ? AND creator_id = ?`,
		id,
		creatorID,
	)
	todo, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("todo %s: %w", id, repository.ErrNotFound)
		}
		return nil, repository.Unavailable(fmt.Errorf("scan todo: %w", err))
	}
	return todo, nil
}

func (r *TodoRepository) ListByCreator(ctx context.Context, creatorID string) ([]domain.Todo, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, text, completed, completed_at, creator_id, created_at, updated_at
FROM todos
WHERE creator_id = ?
ORDER BY created_at ASC, id ASC`, creatorID)
	if err != nil {
		return nil, repository.Unavailable(fmt.Errorf("query todos: %w", err))
	}
	defer rows.Close()

	return collectTodos(rows)
}

func collectTodos(rows rowIterator) ([]domain.Todo, error) {
	todos := []domain.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, repository.Unavailable(fmt.Errorf("scan todo: %w", err))
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.Unavailable(fmt.Errorf("iterate todos: %w", err))
	}
	return todos, nil
}

func (r *TodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	todo.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE todos
SET text=?, completed=?, completed_at=?, updated_at=?
WHERE id=? AND creator_id=?`,
		todo.Text,
		todo.Completed,
		nullTime(todo.CompletedAt),
		todo.UpdatedAt,
		todo.ID,
		todo.CreatorID,
	)
	if err != nil {
		return repository.Unavailable(fmt.Errorf("update todo: %w", err))
	}
	return expectAffected(res, todo.ID)
}

func (r *TodoRepository) Delete(ctx context.Context, creatorID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id=? AND creator_id=?`, id, creatorID)
	if err != nil {
		return repository.Unavailable(fmt.Errorf("delete todo: %w", err))
	}
	return expectAffected(res, id)
}

func expectAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("todo %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func scanTodo(row rowScanner) (*domain.Todo, error) {
	var (
		todo        domain.Todo
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&todo.ID,
		&todo.Text,
		&todo.Completed,
		&completedAt,
		&todo.CreatorID,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		ts := completedAt.Time.UTC()
		todo.CompletedAt = &ts
	}
	return &todo, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
