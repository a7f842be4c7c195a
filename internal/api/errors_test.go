package api_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskdeck/taskdeck-api/internal/api"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"invalid refresh token", auth.ErrInvalidRefreshToken, http.StatusUnauthorized},
		{"not owner", api.ErrNotOwner, http.StatusForbidden},
		{"task not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("fetch: %w", store.ErrNotFound), http.StatusNotFound},
		{"email exists", store.ErrEmailExists, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"unknown error", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, api.MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	// Internal detail must never surface in the client-facing message.
	internal := fmt.Errorf("pq: connect to postgres://u:p@host failed: %w", errors.New("refused"))
	assert.Equal(t, "An unexpected error occurred", api.GetSafeErrorMessage(internal))

	assert.Equal(t, "Task not found", api.GetSafeErrorMessage(store.ErrTaskNotFound))
	assert.Equal(t, "Email already in use", api.GetSafeErrorMessage(store.ErrEmailExists))
	assert.Equal(t, "An unexpected error occurred", api.GetSafeErrorMessage(nil))
}
