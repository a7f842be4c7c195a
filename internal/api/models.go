package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// DateTime is a time value that accepts either a full RFC 3339 timestamp or
// a bare date ("2006-01-02") on input, matching what date pickers send.
//
// It distinguishes a field that was absent from one that was an explicit
// JSON null, so partial updates can clear a stored value. This only works
// on non-pointer fields: encoding/json sets a *DateTime to nil on null
// without ever calling UnmarshalJSON.
type DateTime struct {
	time.Time
	present bool
	null    bool
}

// Present reports whether the field appeared in the request body.
func (d DateTime) Present() bool { return d.present }

// IsNull reports whether the field was an explicit JSON null.
func (d DateTime) IsNull() bool { return d.null }

// UnmarshalJSON implements json.Unmarshaler.
func (d *DateTime) UnmarshalJSON(data []byte) error {
	d.present = true
	s := string(data)
	if s == "null" {
		d.null = true
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date format")
	}
	s = s[1 : len(s)-1]

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date format: %q", s)
}

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// UpdateProfileRequest defines the payload for profile updates. Only fields
// present in the request are applied.
type UpdateProfileRequest struct {
	Name  *string `json:"name"  validate:"omitempty,max=50"`
	Email *string `json:"email" validate:"omitempty,email"`
	Bio   *string `json:"bio"   validate:"omitempty,max=500"`
}

// UpdatePasswordRequest defines the payload for password changes.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,max=72"`
}

// CreateTaskRequest defines the payload for task creation.
type CreateTaskRequest struct {
	Title       string    `json:"title"       validate:"required,max=200"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	Status      string    `json:"status"      validate:"omitempty,oneof=pending in-progress completed cancelled"`
	Priority    string   `json:"priority"    validate:"omitempty,oneof=low medium high urgent"`
	DueDate     DateTime `json:"dueDate"`
	Tags        []string `json:"tags"`
}

// UpdateTaskRequest defines the payload for task updates. All fields are
// optional; only present fields are applied.
type UpdateTaskRequest struct {
	Title       *string   `json:"title"       validate:"omitempty,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Status      *string   `json:"status"      validate:"omitempty,oneof=pending in-progress completed cancelled"`
	Priority    *string   `json:"priority"    validate:"omitempty,oneof=low medium high urgent"`
	DueDate     DateTime  `json:"dueDate"`
	Tags        *[]string `json:"tags"`
}

// UserResponse is the wire representation of a user.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthData is the payload of successful authentication responses.
type AuthData struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken,omitempty"`
	User         UserResponse `json:"user"`
}

// VerifyData is the payload of the token verification endpoint.
type VerifyData struct {
	Valid bool         `json:"valid"`
	User  UserResponse `json:"user"`
}

// TaskResponse is the wire representation of a task. IsOverdue is derived at
// serialization time, mirroring how the entity is presented to clients.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user"`
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

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Bio:       user.Bio,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func taskToResponse(task *domain.Task) TaskResponse {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}
	return TaskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
		Tags:        tags,
		Completed:   task.Completed,
		CompletedAt: task.CompletedAt,
		IsOverdue:   task.IsOverdue(time.Now().UTC()),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskToResponse(task))
	}
	return out
}
