package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck-api/internal/api"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// passthroughTx runs the transaction function directly. The fakes ignore
// the *sql.Tx, so commit and rollback behavior is out of scope here.
func passthroughTx(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

func newUserHandler(users *fakeUserStore) *api.UserHandler {
	return api.NewUserHandler(users, &fakeHasher{}, &fakeVerifier{}, passthroughTx, logger.Noop())
}

func TestUserHandlerGetProfile(t *testing.T) {
	t.Parallel()

	user := testUser(t)
	handler := newUserHandler(newFakeUserStore(user))

	req := authedRequest(t, http.MethodGet, "/api/user/profile", "", user.ID)
	rec := httptest.NewRecorder()
	handler.GetProfile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Bio   string `json:"bio"`
	}
	decodeData(t, decodeEnvelope(t, rec), &data)
	assert.Equal(t, user.Name, data.Name)
	assert.Equal(t, user.Email, data.Email)
	assert.Equal(t, user.Bio, data.Bio)
}

func TestUserHandlerUpdateProfile(t *testing.T) {
	t.Parallel()

	t.Run("partial update", func(t *testing.T) {
		t.Parallel()

		user := testUser(t)
		users := newFakeUserStore(user)
		handler := newUserHandler(users)

		req := authedRequest(t, http.MethodPut, "/api/user/profile",
			`{"bio":"New bio"}`, user.ID)
		rec := httptest.NewRecorder()
		handler.UpdateProfile(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var data struct {
			Name string `json:"name"`
			Bio  string `json:"bio"`
		}
		decodeData(t, decodeEnvelope(t, rec), &data)
		assert.Equal(t, user.Name, data.Name, "name untouched")
		assert.Equal(t, "New bio", data.Bio)
	})

	t.Run("email is normalized", func(t *testing.T) {
		t.Parallel()

		user := testUser(t)
		handler := newUserHandler(newFakeUserStore(user))

		req := authedRequest(t, http.MethodPut, "/api/user/profile",
			`{"email":"New.Address@Example.COM"}`, user.ID)
		rec := httptest.NewRecorder()
		handler.UpdateProfile(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var data struct {
			Email string `json:"email"`
		}
		decodeData(t, decodeEnvelope(t, rec), &data)
		assert.Equal(t, "new.address@example.com", data.Email)
	})

	t.Run("read and write share one transaction", func(t *testing.T) {
		t.Parallel()

		user := testUser(t)
		users := newFakeUserStore(user)

		var calls int
		runTx := func(ctx context.Context, fn store.TxFn) error {
			calls++
			return fn(ctx, nil)
		}
		handler := api.NewUserHandler(users, &fakeHasher{}, &fakeVerifier{}, runTx, logger.Noop())

		req := authedRequest(t, http.MethodPut, "/api/user/profile",
			`{"bio":"New bio"}`, user.ID)
		rec := httptest.NewRecorder()
		handler.UpdateProfile(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, calls)
	})

	t.Run("transaction failure is a server error", func(t *testing.T) {
		t.Parallel()

		user := testUser(t)
		users := newFakeUserStore(user)

		runTx := func(ctx context.Context, fn store.TxFn) error {
			return store.ErrTransactionFailed
		}
		handler := api.NewUserHandler(users, &fakeHasher{}, &fakeVerifier{}, runTx, logger.Noop())

		req := authedRequest(t, http.MethodPut, "/api/user/profile",
			`{"bio":"New bio"}`, user.ID)
		rec := httptest.NewRecorder()
		handler.UpdateProfile(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		t.Parallel()

		user := testUser(t)
		handler := newUserHandler(newFakeUserStore(user))

		req := authedRequest(t, http.MethodPut, "/api/user/profile",
			`{"email":"not-an-email"}`, user.ID)
		rec := httptest.NewRecorder()
		handler.UpdateProfile(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUserHandlerUpdatePassword(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		user := testUser(t)
		users := newFakeUserStore(user)
		handler := newUserHandler(users)

		req := authedRequest(t, http.MethodPut, "/api/user/password",
			`{"currentPassword":"password123","newPassword":"newpassword456"}`, user.ID)
		rec := httptest.NewRecorder()
		handler.UpdatePassword(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		stored, err := users.GetByID(req.Context(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "hashed:newpassword456", stored.HashedPassword)
	})

	t.Run("wrong current password", func(t *testing.T) {
		t.Parallel()

		user := testUser(t)
		users := newFakeUserStore(user)
		handler := newUserHandler(users)

		req := authedRequest(t, http.MethodPut, "/api/user/password",
			`{"currentPassword":"wrong","newPassword":"newpassword456"}`, user.ID)
		rec := httptest.NewRecorder()
		handler.UpdatePassword(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		stored, err := users.GetByID(req.Context(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.HashedPassword, stored.HashedPassword, "password unchanged")
	})

	t.Run("new password too short", func(t *testing.T) {
		t.Parallel()

		user := testUser(t)
		handler := newUserHandler(newFakeUserStore(user))

		req := authedRequest(t, http.MethodPut, "/api/user/password",
			`{"currentPassword":"password123","newPassword":"123"}`, user.ID)
		rec := httptest.NewRecorder()
		handler.UpdatePassword(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)

		resp := decodeEnvelope(t, rec)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "newPassword", resp.Errors[0].Field)
	})
}

func TestUserHandlerDeleteAccount(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		user := testUser(t)
		users := newFakeUserStore(user)
		handler := newUserHandler(users)

		req := authedRequest(t, http.MethodDelete, "/api/user/account", "", user.ID)
		rec := httptest.NewRecorder()
		handler.DeleteAccount(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, users.users)

		resp := decodeEnvelope(t, rec)
		assert.Equal(t, "Account deleted successfully", resp.Message)
	})

	t.Run("already deleted", func(t *testing.T) {
		t.Parallel()

		handler := newUserHandler(newFakeUserStore())

		req := authedRequest(t, http.MethodDelete, "/api/user/account", "", uuid.New())
		rec := httptest.NewRecorder()
		handler.DeleteAccount(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
