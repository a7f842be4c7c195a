package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck-api/pkg/client"
)

func writeEnvelope(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClientLogin(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ada@example.com", body["email"])

		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Login successful",
			"data": map[string]interface{}{
				"token":        "access-token",
				"refreshToken": "refresh-token",
				"user":         map[string]string{"id": "u1", "email": "ada@example.com"},
			},
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	result, err := c.Login(context.Background(), "ada@example.com", "password123")
	require.NoError(t, err)

	assert.Equal(t, "access-token", result.Token)
	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.Equal(t, "access-token", c.Token(), "token stored for later calls")
}

func TestClientSendsBearerToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer stored-token", r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]string{"id": "u1"},
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithToken("stored-token", ""))
	_, err := c.Me(context.Background())
	require.NoError(t, err)
}

func TestClientListTasks(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "report", q.Get("search"))
		assert.Equal(t, "pending", q.Get("status"))
		assert.Equal(t, "work,urgent", q.Get("tags"))
		assert.Equal(t, "2", q.Get("page"))

		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": []map[string]interface{}{
				{"id": "t1", "title": "Write report"},
			},
			"pagination": map[string]int{"current": 2, "limit": 10, "total": 11, "pages": 2},
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	tasks, pagination, err := c.ListTasks(context.Background(), client.ListOptions{
		Search: "report",
		Status: "pending",
		Tags:   []string{"work", "urgent"},
		Page:   2,
	})
	require.NoError(t, err)

	require.Len(t, tasks, 1)
	assert.Equal(t, "Write report", tasks[0].Title)
	require.NotNil(t, pagination)
	assert.Equal(t, 2, pagination.Current)
	assert.Equal(t, 11, pagination.Total)
}

func TestClientUpdateTaskDueDate(t *testing.T) {
	t.Parallel()

	t.Run("ClearTime sends an explicit null", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

			raw, ok := body["dueDate"]
			require.True(t, ok, "dueDate must be present")
			assert.Equal(t, "null", string(raw))

			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"id": "t1"},
			})
		}))
		defer srv.Close()

		c := client.New(srv.URL, client.WithToken("tok", "ref"))
		_, err := c.UpdateTask(context.Background(), "t1", client.UpdateTaskInput{
			DueDate: client.ClearTime(),
		})
		require.NoError(t, err)
	})

	t.Run("nil patch omits the field", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

			_, ok := body["dueDate"]
			assert.False(t, ok, "dueDate must be omitted")

			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"id": "t1"},
			})
		}))
		defer srv.Close()

		status := "in-progress"
		c := client.New(srv.URL, client.WithToken("tok", "ref"))
		_, err := c.UpdateTask(context.Background(), "t1", client.UpdateTaskInput{
			Status: &status,
		})
		require.NoError(t, err)
	})
}

func TestClientAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Validation failed",
			"errors": []map[string]string{
				{"field": "title", "message": "required field"},
			},
			"traceId": "abc123",
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	_, err := c.CreateTask(context.Background(), client.CreateTaskInput{})
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.Equal(t, "abc123", apiErr.TraceID)
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "title", apiErr.Fields[0].Field)
	assert.Contains(t, apiErr.Error(), "title: required field")
}

func TestBoardRefreshAfterMutation(t *testing.T) {
	t.Parallel()

	var listCalls, statsCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/tasks/stats":
			statsCalls++
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"total": listCalls, "completed": 0},
			})
		case r.URL.Path == "/api/tasks" && r.Method == http.MethodGet:
			listCalls++
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"success":    true,
				"data":       []map[string]interface{}{{"id": "t1", "title": "Task"}},
				"pagination": map[string]int{"current": 1, "limit": 10, "total": 1, "pages": 1},
			})
		case r.URL.Path == "/api/tasks" && r.Method == http.MethodPost:
			writeEnvelope(w, http.StatusCreated, map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"id": "t2", "title": "New task"},
			})
		default:
			writeEnvelope(w, http.StatusNotFound, map[string]interface{}{
				"success": false, "message": "not found",
			})
		}
	}))
	defer srv.Close()

	board := client.NewBoard(client.New(srv.URL), client.ListOptions{})

	require.NoError(t, board.Refresh(context.Background()))
	assert.Equal(t, 1, listCalls)
	assert.Equal(t, 1, statsCalls)
	assert.Len(t, board.Tasks(), 1)
	require.NotNil(t, board.Stats())

	// A mutation refetches both the page and the stats.
	_, err := board.CreateTask(context.Background(), client.CreateTaskInput{Title: "New task"})
	require.NoError(t, err)
	assert.Equal(t, 2, listCalls)
	assert.Equal(t, 2, statsCalls)
}
