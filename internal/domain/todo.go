package domain

import "time"

// Todo is a single item owned by the user who created it.
type Todo struct {
	ID          string
	Text        string
	Completed   bool
	CompletedAt *time.Time
	CreatorID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TodoPatch carries the optional fields of a partial todo update.
type TodoPatch struct {
	Text      *string
	Completed *bool
}

// Apply merges the patch into todo. Marking a todo completed stamps
// CompletedAt with now; marking it incomplete clears it.
func (p TodoPatch) Apply(todo *Todo, now time.Time) {
	if p.Text != nil {
		todo.Text = *p.Text
	}
	if p.Completed == nil {
		return
	}
	todo.Completed = *p.Completed
	if todo.Completed {
		ts := now.UTC()
		todo.CompletedAt = &ts
	} else {
		todo.CompletedAt = nil
	}
}
