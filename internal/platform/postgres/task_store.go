package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// taskColumns is the column list shared by every task SELECT.
const taskColumns = `id, user_id, title, description, status, priority, due_date, tags, completed, completed_at, created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskStore.Create
// Returns store.ErrInvalidEntity if the owner does not exist (foreign key
// violation).
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	tags, err := marshalTags(task.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		nullTime(task.DueDate),
		tags,
		task.Completed,
		nullTime(task.CompletedAt),
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", task.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, task.UserID)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return MapError(err)
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// List implements store.TaskStore.List
// It returns one page of the owner's tasks matching the filter and the total
// matching count disregarding pagination.
func (s *PostgresTaskStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filter = filter.Normalize()
	where, args := buildTaskWhere(userID, filter)

	listQuery := fmt.Sprintf(
		`SELECT %s FROM tasks WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		taskColumns,
		where,
		sortColumn(filter.SortBy),
		sortDirection(filter.Ascending),
		len(args)+1,
		len(args)+2,
	)
	listArgs := append(append([]any{}, args...), filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()))
			return nil, 0, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM tasks WHERE ` + where
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, MapError(err)
	}

	log.Debug("listed tasks",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(tasks)),
		slog.Int("total", total))
	return tasks, total, nil
}

// Update implements store.TaskStore.Update
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	tags, err := marshalTags(task.Tags)
	if err != nil {
		return err
	}

	task.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
		    due_date = $5, tags = $6, completed = $7, completed_at = $8,
		    updated_at = $9
		WHERE id = $10
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		nullTime(task.DueDate),
		tags,
		task.Completed,
		nullTime(task.CompletedAt),
		task.UpdatedAt,
		task.ID,
	)

	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		log.Debug("task not found for update",
			slog.String("task_id", task.ID.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task updated successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// Delete implements store.TaskStore.Delete
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		log.Debug("task not found for delete",
			slog.String("task_id", id.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task deleted successfully",
		slog.String("task_id", id.String()))
	return nil
}

// Stats implements store.TaskStore.Stats
// A single GROUPING SETS query produces the status buckets, priority buckets,
// and overall/completed totals, so all four aggregates come from the same
// snapshot.
func (s *PostgresTaskStore) Stats(ctx context.Context, userID uuid.UUID) (*store.TaskStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT status, priority, COUNT(*) AS count,
		       COUNT(*) FILTER (WHERE completed) AS completed
		FROM tasks
		WHERE user_id = $1
		GROUP BY GROUPING SETS ((status), (priority), ())
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query task stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	stats := &store.TaskStats{
		ByStatus:   []store.StatusCount{},
		ByPriority: []store.PriorityCount{},
	}

	for rows.Next() {
		var (
			status    sql.NullString
			priority  sql.NullString
			count     int
			completed int
		)
		if err := rows.Scan(&status, &priority, &count, &completed); err != nil {
			log.Error("failed to scan stats row",
				slog.String("error", err.Error()))
			return nil, err
		}

		switch {
		case status.Valid:
			stats.ByStatus = append(stats.ByStatus, store.StatusCount{
				Status: domain.TaskStatus(status.String),
				Count:  count,
			})
		case priority.Valid:
			stats.ByPriority = append(stats.ByPriority, store.PriorityCount{
				Priority: domain.TaskPriority(priority.String),
				Count:    count,
			})
		default:
			// The empty grouping set row carries the overall totals.
			stats.Total = count
			stats.Completed = completed
		}
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning stats rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("computed task stats",
		slog.String("user_id", userID.String()),
		slog.Int("total", stats.Total))
	return stats, nil
}

// buildTaskWhere translates a normalized filter into a WHERE clause and its
// arguments. All filters are ANDed; search spans title OR description; the
// tag clauses are ORed so any intersection matches.
func buildTaskWhere(userID uuid.UUID, filter store.TaskFilter) (string, []any) {
	clauses := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		args = append(args, pattern)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	if filter.Status != "" && filter.Status != "all" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	if filter.Priority != "" && filter.Priority != "all" {
		args = append(args, filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority = $%d", len(args)))
	}

	if len(filter.Tags) > 0 {
		tagClauses := make([]string, 0, len(filter.Tags))
		for _, tag := range filter.Tags {
			args = append(args, tag)
			tagClauses = append(tagClauses, fmt.Sprintf("tags ? $%d", len(args)))
		}
		clauses = append(clauses, "("+strings.Join(tagClauses, " OR ")+")")
	}

	return strings.Join(clauses, " AND "), args
}

// sortColumn maps a sort field to its column. The four documented fields map
// directly; anything else sorts by creation time.
func sortColumn(field store.TaskSortField) string {
	switch field {
	case store.SortByTitle:
		return "title"
	case store.SortByPriority:
		return "priority"
	case store.SortByDueDate:
		return "due_date"
	default:
		return "created_at"
	}
}

func sortDirection(ascending bool) string {
	if ascending {
		return "ASC"
	}
	return "DESC"
}

// escapeLike escapes the LIKE metacharacters in a user-supplied search term
// so it matches as a literal substring.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		task        domain.Task
		status      string
		priority    string
		dueDate     sql.NullTime
		tagsJSON    []byte
		completedAt sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&dueDate,
		&tagsJSON,
		&task.Completed,
		&completedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	if dueDate.Valid {
		t := dueDate.Time
		task.DueDate = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &task.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task tags: %w", err)
		}
	}

	return &task, nil
}

// marshalTags encodes tags as the JSONB array stored in the tags column.
// A nil slice is stored as an empty array.
func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task tags: %w", err)
	}
	return data, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
