package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck-api/internal/api/middleware"
	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// TxRunner executes fn inside a database transaction, committing when fn
// returns nil and rolling back otherwise. Handlers use it to group
// read-modify-write sequences without holding a *sql.DB directly.
type TxRunner func(ctx context.Context, fn store.TxFn) error

// UserHandler handles profile management API requests.
type UserHandler struct {
	userStore        store.UserStore
	passwordHasher   auth.PasswordHasher
	passwordVerifier auth.PasswordVerifier
	runTx            TxRunner
	logger           *slog.Logger
}

// NewUserHandler creates a new UserHandler with the given dependencies.
func NewUserHandler(
	userStore store.UserStore,
	passwordHasher auth.PasswordHasher,
	passwordVerifier auth.PasswordVerifier,
	runTx TxRunner,
	log *slog.Logger,
) *UserHandler {
	if runTx == nil {
		panic("runTx cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &UserHandler{
		userStore:        userStore,
		passwordHasher:   passwordHasher,
		passwordVerifier: passwordVerifier,
		runTx:            runTx,
		logger:           log.With(slog.String("component", "user_handler")),
	}
}

// GetProfile handles GET /api/user/profile.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadCurrentUser(w, r)
	if !ok {
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, "", userToResponse(user))
}

// UpdateProfile handles PUT /api/user/profile.
// Only the fields present in the request body are changed. The read and the
// write run in one transaction so concurrent edits cannot interleave.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithFieldErrors(w, r, "Validation failed", ValidationFieldErrors(err))
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var (
		updated    *domain.User
		invalidErr error
	)
	txErr := h.runTx(r.Context(), func(ctx context.Context, tx *sql.Tx) error {
		users := h.userStore.WithTx(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			user.Email = domain.NormalizeEmail(*req.Email)
		}
		if req.Bio != nil {
			user.Bio = strings.TrimSpace(*req.Bio)
		}
		user.UpdatedAt = time.Now().UTC()

		if err := user.Validate(); err != nil {
			invalidErr = err
			return err
		}

		if err := users.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if txErr != nil {
		switch {
		case invalidErr != nil:
			shared.RespondWithError(w, r, http.StatusBadRequest, invalidErr.Error())
		case errors.Is(txErr, store.ErrUserNotFound):
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
		case errors.Is(txErr, store.ErrEmailExists):
			shared.RespondWithError(w, r, http.StatusBadRequest, "Email is already in use")
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Server error while updating profile", txErr)
		}
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, "Profile updated successfully", userToResponse(updated))
}

// UpdatePassword handles PUT /api/user/password.
// The current password must verify before the new one is accepted. Verify
// and replace happen in one transaction so the hash that was checked is the
// hash that gets replaced.
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req UpdatePasswordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithFieldErrors(w, r, "Validation failed", ValidationFieldErrors(err))
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	// Hashing is slow on purpose; do it before opening the transaction.
	hashed, err := h.passwordHasher.Hash(req.NewPassword)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Server error while updating password", err)
		return
	}

	var wrongPassword bool
	txErr := h.runTx(r.Context(), func(ctx context.Context, tx *sql.Tx) error {
		users := h.userStore.WithTx(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if err := h.passwordVerifier.Compare(user.HashedPassword, req.CurrentPassword); err != nil {
			wrongPassword = true
			return err
		}

		user.HashedPassword = hashed
		user.UpdatedAt = time.Now().UTC()
		return users.Update(ctx, user)
	})
	if txErr != nil {
		switch {
		case wrongPassword:
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Current password is incorrect")
		case errors.Is(txErr, store.ErrUserNotFound):
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Server error while updating password", txErr)
		}
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, "Password updated successfully", nil)
}

// DeleteAccount handles DELETE /api/user/account.
// The user's tasks are removed alongside the account by the cascading
// foreign key on the tasks table.
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	if err := h.userStore.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Server error while deleting account", err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, "Account deleted successfully", nil)
}

func (h *UserHandler) loadCurrentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return nil, false
	}

	user, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return nil, false
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Server error while fetching user", err)
		return nil, false
	}

	return user, true
}
