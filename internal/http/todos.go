package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"todo-server/internal/domain"
	"todo-server/internal/storage"
)

type createTodoRequest struct {
	Text string `json:"text"`
}

type updateTodoRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

type TodoResponse struct {
	ID          string `json:"_id"`
	Text        string `json:"text"`
	Completed   bool   `json:"completed"`
	CompletedAt *int64 `json:"completedAt"`
	CreatorID   string `json:"_creator"`
}

type ExportResponse struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	URL      string `json:"url,omitempty"`
	Count    int    `json:"count"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func todoToResponse(todo domain.Todo) TodoResponse {
	resp := TodoResponse{
		ID:        todo.ID,
		Text:      todo.Text,
		Completed: todo.Completed,
		CreatorID: todo.CreatorID,
	}
	if todo.CompletedAt != nil {
		ms := todo.CompletedAt.UnixMilli()
		resp.CompletedAt = &ms
	}
	return resp
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}

func (h *Handler) createTodo(c *gin.Context) {
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userID, _ := currentUser(c)
	todo, err := h.todos.Create(c.Request.Context(), userID, req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(*todo))
}

func (h *Handler) listTodos(c *gin.Context) {
	userID, _ := currentUser(c)
	todos, err := h.todos.List(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]TodoResponse, len(todos))
	for i := range todos {
		resp[i] = todoToResponse(todos[i])
	}
	c.JSON(http.StatusOK, gin.H{"todos": resp})
}

func (h *Handler) getTodo(c *gin.Context) {
	userID, _ := currentUser(c)
	todo, err := h.todos.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todoToResponse(*todo)})
}

func (h *Handler) updateTodo(c *gin.Context) {
	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userID, _ := currentUser(c)
	todo, err := h.todos.Update(c.Request.Context(), userID, c.Param("id"), domain.TodoPatch{
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todoToResponse(*todo)})
}

func (h *Handler) deleteTodo(c *gin.Context) {
	userID, _ := currentUser(c)
	todo, err := h.todos.Delete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todoToResponse(*todo)})
}

func (h *Handler) exportTodos(c *gin.Context) {
	userID, _ := currentUser(c)
	export, err := h.exports.Export(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExportResponse{
		Key:      export.Key,
		Location: export.Location,
		URL:      export.URL,
		Count:    export.Count,
	})
}

func (h *Handler) listExports(c *gin.Context) {
	userID, _ := currentUser(c)
	objects, err := h.exports.List(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) purgeExports(c *gin.Context) {
	userID, _ := currentUser(c)
	prefix, err := h.exports.Purge(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": prefix})
}
