package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.Unavailable(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // safe no-op on commit

	if _, err := tx.ExecContext(ctx, `
INSERT INTO users (id, email, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user: %w", repository.ErrAlreadyExists)
		}
		return repository.Unavailable(fmt.Errorf("insert user: %w", err))
	}

	for _, token := range user.Tokens {
		if err := insertToken(ctx, tx, user.ID, token); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return repository.Unavailable(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, created_at, updated_at
FROM users
WHERE email = ?`,
		email,
	)
	return r.load(ctx, row)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, created_at, updated_at
FROM users
WHERE id = ?`,
		id,
	)
	return r.load(ctx, row)
}

func (r *UserRepository) AddToken(ctx context.Context, userID string, token domain.Token) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.Unavailable(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // safe no-op on commit

	if err := insertToken(ctx, tx, userID, token); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET updated_at=? WHERE id=?`, time.Now().UTC(), userID); err != nil {
		return repository.Unavailable(fmt.Errorf("touch user: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return repository.Unavailable(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// RemoveToken deletes every entry matching token. Removing an absent token
// is not an error.
func (r *UserRepository) RemoveToken(ctx context.Context, userID, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id=? AND token=?`, userID, token); err != nil {
		return repository.Unavailable(fmt.Errorf("delete token: %w", err))
	}
	return nil
}

func (r *UserRepository) load(ctx context.Context, row rowScanner) (*domain.User, error) {
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	tokens, err := r.listTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Tokens = tokens
	return user, nil
}

func (r *UserRepository) listTokens(ctx context.Context, userID string) ([]domain.Token, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT access, token
FROM user_tokens
WHERE user_id=?
ORDER BY id ASC`, userID)
	if err != nil {
		return nil, repository.Unavailable(fmt.Errorf("query tokens: %w", err))
	}
	defer rows.Close()

	return collectTokens(rows)
}

func collectTokens(rows rowIterator) ([]domain.Token, error) {
	var tokens []domain.Token
	for rows.Next() {
		var token domain.Token
		if err := rows.Scan(&token.Access, &token.Token); err != nil {
			return nil, repository.Unavailable(fmt.Errorf("scan token: %w", err))
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.Unavailable(fmt.Errorf("iterate tokens: %w", err))
	}
	return tokens, nil
}

func insertToken(ctx context.Context, tx *sql.Tx, userID string, token domain.Token) error {
	if _, err := tx.ExecContext(ctx, `
INSERT INTO user_tokens (user_id, access, token)
VALUES (?, ?, ?)`,
		userID,
		token.Access,
		token.Token,
	); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			return fmt.Errorf("insert token: %w", repository.ErrNotFound)
		}
		return repository.Unavailable(fmt.Errorf("insert token: %w", err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

type rowIterator interface {
	rowScanner
	Next() bool
	Err() error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
		}
		return nil, repository.Unavailable(fmt.Errorf("scan user: %w", err))
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
