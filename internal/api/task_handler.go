package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/api/middleware"
	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// TaskHandler handles task management API requests.
type TaskHandler struct {
	taskStore store.TaskStore
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskStore store.TaskStore, log *slog.Logger) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskHandler{
		taskStore: taskStore,
		logger:    log.With(slog.String("component", "task_handler")),
	}
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithFieldErrors(w, r, "Validation failed", ValidationFieldErrors(err))
		return
	}

	var dueDate *time.Time
	if req.DueDate.Present() && !req.DueDate.IsNull() {
		dueDate = &req.DueDate.Time
	}

	task, err := domain.NewTask(
		userID,
		req.Title,
		req.Description,
		domain.TaskStatus(req.Status),
		domain.TaskPriority(req.Priority),
		dueDate,
		req.Tags,
	)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.taskStore.Create(r.Context(), task); err != nil {
		status := MapErrorToStatusCode(err)
		msg := "Server error while creating task"
		if status != http.StatusInternalServerError {
			msg = GetSafeErrorMessage(err)
		}
		shared.RespondWithErrorAndLog(w, r, status, msg, err)
		return
	}

	shared.RespondWithData(w, r, http.StatusCreated, "Task created successfully", taskToResponse(task))
}

// List handles GET /api/tasks.
// Filtering, sorting and pagination are all driven by query parameters.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	filter := taskFilterFromQuery(r)

	tasks, total, err := h.taskStore.List(r.Context(), userID, filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Server error while fetching tasks", err)
		return
	}

	filter = filter.Normalize()
	pages := (total + filter.Limit - 1) / filter.Limit

	shared.RespondWithList(w, r, tasksToResponse(tasks), shared.Pagination{
		Current: filter.Page,
		Limit:   filter.Limit,
		Total:   total,
		Pages:   pages,
	})
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, "", taskToResponse(task))
}

// Update handles PUT /api/tasks/{id}.
// Only the fields present in the request body are changed; the completion
// fields are re-derived from the resulting status.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithFieldErrors(w, r, "Validation failed", ValidationFieldErrors(err))
		return
	}

	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}

	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		task.Status = domain.TaskStatus(*req.Status)
	}
	if req.Priority != nil {
		task.Priority = domain.TaskPriority(*req.Priority)
	}
	if req.DueDate.Present() {
		// An explicit null clears the due date; an absent field leaves it
		// unchanged.
		if req.DueDate.IsNull() {
			task.DueDate = nil
		} else {
			task.DueDate = &req.DueDate.Time
		}
	}
	if req.Tags != nil {
		task.Tags = domain.TrimTags(*req.Tags)
	}

	now := time.Now().UTC()
	task.ApplyStatusEffects(now)
	task.UpdatedAt = now

	if err := task.Validate(); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.taskStore.Update(r.Context(), task); err != nil {
		status := MapErrorToStatusCode(err)
		msg := "Server error while updating task"
		if status != http.StatusInternalServerError {
			msg = GetSafeErrorMessage(err)
		}
		shared.RespondWithErrorAndLog(w, r, status, msg, err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, "Task updated successfully", taskToResponse(task))
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}

	if err := h.taskStore.Delete(r.Context(), task.ID); err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Server error while deleting task", err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, "Task deleted successfully", map[string]uuid.UUID{
		"id": task.ID,
	})
}

// Stats handles GET /api/tasks/stats.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	stats, err := h.taskStore.Stats(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Server error while fetching task statistics", err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, "", stats)
}

// loadOwnedTask resolves the {id} URL parameter to a task owned by the
// authenticated user, writing the error response itself when that fails.
// A malformed ID is reported as not found rather than as a client syntax
// error so that guessing IDs reveals nothing.
func (h *TaskHandler) loadOwnedTask(w http.ResponseWriter, r *http.Request) (*domain.Task, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return nil, false
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return nil, false
	}

	task, err := h.taskStore.GetByID(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return nil, false
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Server error while fetching task", err)
		return nil, false
	}

	if task.UserID != userID {
		err := ErrNotOwner
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return nil, false
	}

	return task, true
}

// taskFilterFromQuery builds a TaskFilter from list query parameters.
// Unparseable numeric values fall back to the defaults.
func taskFilterFromQuery(r *http.Request) store.TaskFilter {
	q := r.URL.Query()

	filter := store.TaskFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		SortBy:   store.TaskSortField(q.Get("sortBy")),
	}

	if tags := strings.TrimSpace(q.Get("tags")); tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}

	filter.Ascending = strings.EqualFold(q.Get("order"), "asc")

	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}

	return filter
}
