package client

import (
	"encoding/json"
	"time"
)

// User is the profile shape returned by the API.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Task is the task shape returned by the API.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	IsOverdue   bool       `json:"isOverdue"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// StatusCount is one bucket of the by-status aggregation.
type StatusCount struct {
	Status string `json:"_id"`
	Count  int    `json:"count"`
}

// PriorityCount is one bucket of the by-priority aggregation.
type PriorityCount struct {
	Priority string `json:"_id"`
	Count    int    `json:"count"`
}

// Stats holds the aggregate task counts for the authenticated user.
type Stats struct {
	ByStatus   []StatusCount   `json:"byStatus"`
	ByPriority []PriorityCount `json:"byPriority"`
	Total      int             `json:"total"`
	Completed  int             `json:"completed"`
}

// Pagination is the paging block accompanying list responses.
type Pagination struct {
	Current int `json:"current"`
	Limit   int `json:"limit"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// FieldError is one entry of a validation failure list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AuthResult carries the tokens and profile returned by the auth endpoints.
type AuthResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// CreateTaskInput is the request body for creating a task. Zero values for
// Status and Priority let the server apply its defaults.
type CreateTaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// TimePatch is a tri-state time field for partial updates. A nil *TimePatch
// is omitted from the request, SetTime sends a value, and ClearTime sends an
// explicit null so the server clears the stored value.
type TimePatch struct {
	value *time.Time
}

// SetTime returns a patch that sets the field to t.
func SetTime(t time.Time) *TimePatch {
	return &TimePatch{value: &t}
}

// ClearTime returns a patch that clears the field.
func ClearTime() *TimePatch {
	return &TimePatch{}
}

// MarshalJSON implements json.Marshaler.
func (p *TimePatch) MarshalJSON() ([]byte, error) {
	if p.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}

// UpdateTaskInput is the request body for a partial task update. Nil fields
// are omitted from the request and left unchanged by the server.
type UpdateTaskInput struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *TimePatch `json:"dueDate,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
}

// UpdateProfileInput is the request body for a partial profile update.
type UpdateProfileInput struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Bio   *string `json:"bio,omitempty"`
}

// ListOptions mirrors the query parameters of the task list endpoint.
type ListOptions struct {
	Search   string
	Status   string
	Priority string
	Tags     []string
	SortBy   string
	Order    string
	Page     int
	Limit    int
}
