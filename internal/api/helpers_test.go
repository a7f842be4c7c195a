package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// fakeUserStore is an in-memory UserStore for handler tests.
type fakeUserStore struct {
	users map[uuid.UUID]*domain.User

	createErr error
	updateErr error
}

func newFakeUserStore(users ...*domain.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *fakeUserStore) Update(_ context.Context, user *domain.User) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) WithTx(_ *sql.Tx) store.UserStore { return s }

// fakeTaskStore is an in-memory TaskStore for handler tests. List applies
// pagination only; filter behavior is covered by the postgres tests.
type fakeTaskStore struct {
	tasks map[uuid.UUID]*domain.Task

	createErr error
	updateErr error
	statsErr  error
}

func newFakeTaskStore(tasks ...*domain.Task) *fakeTaskStore {
	s := &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
	for _, task := range tasks {
		s.tasks[task.ID] = task
	}
	return s
}

func (s *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *fakeTaskStore) List(
	_ context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, int, error) {
	filter = filter.Normalize()

	var owned []*domain.Task
	for _, task := range s.tasks {
		if task.UserID == userID {
			copied := *task
			owned = append(owned, &copied)
		}
	}

	total := len(owned)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return owned[start:end], total, nil
}

func (s *fakeTaskStore) Update(_ context.Context, task *domain.Task) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *fakeTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *fakeTaskStore) Stats(_ context.Context, userID uuid.UUID) (*store.TaskStats, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}

	stats := &store.TaskStats{}
	byStatus := map[domain.TaskStatus]int{}
	byPriority := map[domain.TaskPriority]int{}
	for _, task := range s.tasks {
		if task.UserID != userID {
			continue
		}
		stats.Total++
		if task.Completed {
			stats.Completed++
		}
		byStatus[task.Status]++
		byPriority[task.Priority]++
	}
	for status, count := range byStatus {
		stats.ByStatus = append(stats.ByStatus, store.StatusCount{Status: status, Count: count})
	}
	for priority, count := range byPriority {
		stats.ByPriority = append(stats.ByPriority, store.PriorityCount{Priority: priority, Count: count})
	}
	return stats, nil
}

func (s *fakeTaskStore) WithTx(_ *sql.Tx) store.TaskStore { return s }

// fakeJWTService issues predictable tokens keyed by user ID.
type fakeJWTService struct {
	validateErr error
}

func (s *fakeJWTService) GenerateToken(_ context.Context, userID uuid.UUID) (string, error) {
	return "access-" + userID.String(), nil
}

func (s *fakeJWTService) GenerateRefreshToken(_ context.Context, userID uuid.UUID) (string, error) {
	return "refresh-" + userID.String(), nil
}

func (s *fakeJWTService) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	userID, err := uuid.Parse(token[len("access-"):])
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: userID, TokenType: "access"}, nil
}

func (s *fakeJWTService) ValidateRefreshToken(_ context.Context, token string) (*auth.Claims, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	if len(token) < len("refresh-") || token[:len("refresh-")] != "refresh-" {
		return nil, auth.ErrInvalidRefreshToken
	}
	userID, err := uuid.Parse(token[len("refresh-"):])
	if err != nil {
		return nil, auth.ErrInvalidRefreshToken
	}
	return &auth.Claims{UserID: userID, TokenType: "refresh"}, nil
}

// fakeHasher marks passwords instead of hashing so tests can assert on the
// stored value.
type fakeHasher struct {
	hashErr error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + password, nil
}

// fakeVerifier accepts passwords hashed by fakeHasher.
type fakeVerifier struct{}

func (v *fakeVerifier) Compare(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("password mismatch")
	}
	return nil
}

// testUser returns a stored user with a fakeHasher-compatible password.
func testUser(t *testing.T) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	return &domain.User{
		ID:             uuid.New(),
		Name:           "Ada Lovelace",
		Email:          "ada@example.com",
		HashedPassword: "hashed:password123",
		Bio:            "First programmer",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// testTask returns a stored pending task owned by the given user.
func testTask(t *testing.T, ownerID uuid.UUID) *domain.Task {
	t.Helper()
	now := time.Now().UTC()
	return &domain.Task{
		ID:        uuid.New(),
		UserID:    ownerID,
		Title:     "Write report",
		Status:    domain.TaskStatusPending,
		Priority:  domain.TaskPriorityMedium,
		Tags:      []string{"work"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// jsonBody wraps a JSON literal as a request body.
func jsonBody(s string) *bytes.Reader {
	return bytes.NewReader([]byte(s))
}

// authedRequest builds a request whose context carries the authenticated
// user ID, as the auth middleware would have set it.
func authedRequest(t *testing.T, method, target string, body string, userID uuid.UUID) *http.Request {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
	return req.WithContext(ctx)
}

// withURLParam attaches a chi route parameter to the request.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeEnvelope decodes the standard response envelope from a recorder.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) shared.Response {
	t.Helper()

	var resp shared.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// decodeData re-marshals the envelope's data payload into out.
func decodeData(t *testing.T, resp shared.Response, out interface{}) {
	t.Helper()

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}
