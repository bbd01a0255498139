package service

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"todo-server/internal/domain"
)

const (
	// MinPasswordLength is the shortest password accepted at registration.
	MinPasswordLength = 6
	// MaxPasswordLength is bcrypt's input limit.
	MaxPasswordLength = 72
	// MaxTodoTextLength caps the size of a todo's text.
	MaxTodoTextLength = 1024
)

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCredentials checks the shape of a registration request.
// The email is expected to be normalized already.
func ValidateCredentials(email, password string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return domain.ErrInvalidEmail
	}
	if err := validation.Validate(password,
		validation.Required,
		validation.Length(MinPasswordLength, MaxPasswordLength),
	); err != nil {
		return domain.ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return domain.ErrWeakPassword
	}
	return nil
}

// ValidateTodoText trims text and rejects it when empty or oversized.
func ValidateTodoText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if err := validation.Validate(text,
		validation.Required,
		validation.Length(1, MaxTodoTextLength),
	); err != nil {
		return "", domain.ErrInvalidTodo
	}
	return text, nil
}

// ParseID checks that id is a well-formed identifier. Malformed ids cannot
// name any record, so they are reported as not found.
func ParseID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", domain.ErrNotFound
	}
	return parsed.String(), nil
}
