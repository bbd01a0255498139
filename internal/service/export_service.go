package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"todo-server/internal/domain"
	"todo-server/internal/storage"
)

// ErrExportDisabled is returned when no object storage is configured.
var ErrExportDisabled = errors.New("todo export is not configured")

// Export describes one uploaded todo snapshot.
type Export struct {
	Key      string
	Location string
	URL      string
	Count    int
}

// ExportService writes JSON snapshots of a user's todos to object storage.
type ExportService interface {
	Export(ctx context.Context, userID string) (*Export, error)
	List(ctx context.Context, userID string) ([]storage.ObjectInfo, error)
	Purge(ctx context.Context, userID string) (string, error)
}

type exportService struct {
	todos     TodoService
	store     storage.Service
	keyPrefix string
	urlTTL    time.Duration
	now       func() time.Time
}

// NewExportService returns an ExportService. A nil store disables exports.
func NewExportService(todos TodoService, store storage.Service, keyPrefix string) ExportService {
	return &exportService{
		todos:     todos,
		store:     store,
		keyPrefix: keyPrefix,
		urlTTL:    15 * time.Minute,
		now:       time.Now,
	}
}

type snapshot struct {
	UserID     string         `json:"user_id"`
	ExportedAt time.Time      `json:"exported_at"`
	Todos      []snapshotTodo `json:"todos"`
}

type snapshotTodo struct {
	ID          string     `json:"_id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (s *exportService) Export(ctx context.Context, userID string) (*Export, error) {
	if s.store == nil {
		return nil, ErrExportDisabled
	}

	todos, err := s.todos.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	snap := snapshot{UserID: userID, ExportedAt: now, Todos: make([]snapshotTodo, len(todos))}
	for i, todo := range todos {
		snap.Todos[i] = toSnapshotTodo(todo)
	}
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := storage.JoinKey(s.userPrefix(userID), now.Format("20060102T150405.000Z")+".json")
	location, err := s.store.PutObject(ctx, key, body, "application/json")
	if err != nil {
		return nil, err
	}

	export := &Export{Key: key, Location: location, Count: len(todos)}
	if url, err := s.store.GetObjectURL(ctx, key, s.urlTTL); err == nil {
		export.URL = url
	}
	return export, nil
}

func (s *exportService) List(ctx context.Context, userID string) ([]storage.ObjectInfo, error) {
	if s.store == nil {
		return nil, ErrExportDisabled
	}
	return s.store.ListObjects(ctx, s.userPrefix(userID)+"/")
}

func (s *exportService) Purge(ctx context.Context, userID string) (string, error) {
	if s.store == nil {
		return "", ErrExportDisabled
	}
	prefix := s.userPrefix(userID) + "/"
	if err := s.store.DeletePrefix(ctx, prefix); err != nil {
		return "", err
	}
	return prefix, nil
}

func (s *exportService) userPrefix(userID string) string {
	return storage.JoinKey(s.keyPrefix, userID)
}

func toSnapshotTodo(todo domain.Todo) snapshotTodo {
	return snapshotTodo{
		ID:          todo.ID,
		Text:        todo.Text,
		Completed:   todo.Completed,
		CompletedAt: todo.CompletedAt,
		CreatedAt:   todo.CreatedAt,
	}
}
