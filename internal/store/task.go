package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// Default pagination values applied when a TaskFilter leaves them unset.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// TaskSortField names the columns a task list may be ordered by.
type TaskSortField string

// Supported sort fields. Anything else falls back to SortByCreatedAt.
const (
	SortByCreatedAt TaskSortField = "createdAt"
	SortByTitle     TaskSortField = "title"
	SortByPriority  TaskSortField = "priority"
	SortByDueDate   TaskSortField = "dueDate"
)

// TaskFilter describes a task list query. All filters are combined
// conjunctively; zero values mean "no filter".
type TaskFilter struct {
	// Search is matched case-insensitively as a substring against title OR
	// description. Empty means no search filter.
	Search string

	// Status filters by exact status. Empty or "all" means no filter.
	Status string

	// Priority filters by exact priority. Empty or "all" means no filter.
	Priority string

	// Tags matches tasks whose tag set intersects this list. Tags are
	// trimmed before matching.
	Tags []string

	// SortBy selects the ordering column, SortByCreatedAt when unset.
	SortBy TaskSortField

	// Ascending orders results ascending; the default is descending.
	Ascending bool

	// Page is 1-based; values below 1 are treated as DefaultPage.
	Page int

	// Limit is the page size; values below 1 are treated as DefaultLimit.
	Limit int
}

// Normalize fills in defaults and trims tag values.
func (f TaskFilter) Normalize() TaskFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	f.Tags = domain.TrimTags(f.Tags)
	switch f.SortBy {
	case SortByCreatedAt, SortByTitle, SortByPriority, SortByDueDate:
	default:
		f.SortBy = SortByCreatedAt
	}
	return f
}

// StatusCount is one bucket of a grouped-by-status aggregation.
type StatusCount struct {
	Status domain.TaskStatus `json:"_id"`
	Count  int               `json:"count"`
}

// PriorityCount is one bucket of a grouped-by-priority aggregation.
type PriorityCount struct {
	Priority domain.TaskPriority `json:"_id"`
	Count    int                 `json:"count"`
}

// TaskStats holds the composite aggregation result for one owner. Groups
// with no tasks are simply absent from the slices, not zero-count entries.
type TaskStats struct {
	ByStatus   []StatusCount   `json:"byStatus"`
	ByPriority []PriorityCount `json:"byPriority"`
	Total      int             `json:"total"`
	Completed  int             `json:"completed"`
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns ErrInvalidEntity if the owner does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID, regardless of owner.
	// Ownership checks happen at the API layer so that "not yours" and
	// "does not exist" can produce distinct responses.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns one page of the owner's tasks matching the filter along
	// with the total matching count disregarding pagination.
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*domain.Task, int, error)

	// Update saves changes to an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Stats returns the owner's aggregate counts grouped by status and
	// priority plus total and completed counts, computed in a single query
	// so all four reflect the same snapshot.
	Stats(ctx context.Context, userID uuid.UUID) (*TaskStats, error)

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) TaskStore
}
