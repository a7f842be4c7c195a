package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Valid task statuses.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsValid reports whether the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// TaskPriority is the urgency level of a task.
type TaskPriority string

// Valid task priorities.
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// IsValid reports whether the priority is one of the known values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Task field limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// Common task validation errors.
var (
	ErrEmptyTaskID        = errors.New("task ID cannot be empty")
	ErrEmptyTaskOwner     = errors.New("task owner cannot be empty")
	ErrEmptyTitle         = errors.New("task title is required")
	ErrTitleTooLong       = errors.New("title cannot exceed 200 characters")
	ErrDescriptionTooLong = errors.New("description cannot exceed 2000 characters")
	ErrInvalidStatus      = errors.New("invalid status value")
	ErrInvalidPriority    = errors.New("invalid priority value")
)

// Task represents a single task owned by a user.
//
// Completed and CompletedAt are derived from Status transitions and must
// never be set directly; ApplyStatusEffects keeps them consistent.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate"`
	Tags        []string     `json:"tags"`
	Completed   bool         `json:"completed"`
	CompletedAt *time.Time   `json:"completedAt"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// NewTask creates a new Task for the given owner. Empty status and priority
// default to pending/medium, tags are trimmed, and the completion fields are
// derived from the initial status.
func NewTask(userID uuid.UUID, title, description string, status TaskStatus, priority TaskPriority, dueDate *time.Time, tags []string) (*Task, error) {
	if status == "" {
		status = TaskStatusPending
	}
	if priority == "" {
		priority = TaskPriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
		Tags:        TrimTags(tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	task.ApplyStatusEffects(now)

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyTaskOwner
	}
	if t.Title == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}
	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}
	return nil
}

// ApplyStatusEffects derives Completed and CompletedAt from the current
// Status. It is a pure state transition with no side effects beyond the two
// fields and must run before every persistence call, on create and update
// alike:
//
//   - status == completed and CompletedAt unset: CompletedAt = now,
//     Completed = true. A repeated save with status already completed keeps
//     the original CompletedAt.
//   - status != completed: both fields are cleared unconditionally.
func (t *Task) ApplyStatusEffects(now time.Time) {
	if t.Status == TaskStatusCompleted {
		if t.CompletedAt == nil {
			ts := now.UTC()
			t.CompletedAt = &ts
		}
		t.Completed = true
		return
	}

	t.Completed = false
	t.CompletedAt = nil
}

// IsOverdue reports whether the task has a due date in the past and has not
// been completed.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return now.After(*t.DueDate)
}

// TrimTags returns the tags with surrounding whitespace removed. Empty tags
// are dropped; order is preserved.
func TrimTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	trimmed := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		trimmed = append(trimmed, tag)
	}
	return trimmed
}
