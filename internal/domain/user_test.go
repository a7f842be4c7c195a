package domain_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("normalizes name and email", func(t *testing.T) {
		t.Parallel()

		user, err := domain.NewUser("  Ada Lovelace  ", "  Ada@Example.COM ", "password123")
		require.NoError(t, err)

		assert.Equal(t, "Ada Lovelace", user.Name)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("validation failures", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name     string
			userName string
			email    string
			password string
			wantErr  error
		}{
			{
				name:     "empty name",
				userName: "",
				email:    "a@example.com",
				password: "password123",
				wantErr:  domain.ErrEmptyName,
			},
			{
				name:     "name too long",
				userName: strings.Repeat("a", domain.MaxNameLength+1),
				email:    "a@example.com",
				password: "password123",
				wantErr:  domain.ErrNameTooLong,
			},
			{
				name:     "empty email",
				userName: "Ada",
				email:    "",
				password: "password123",
				wantErr:  domain.ErrEmptyEmail,
			},
			{
				name:     "invalid email",
				userName: "Ada",
				email:    "not-an-email",
				password: "password123",
				wantErr:  domain.ErrInvalidEmail,
			},
			{
				name:     "password too short",
				userName: "Ada",
				email:    "a@example.com",
				password: "12345",
				wantErr:  domain.ErrPasswordTooShort,
			},
			{
				name:     "password too long",
				userName: "Ada",
				email:    "a@example.com",
				password: strings.Repeat("p", domain.MaxPasswordLength+1),
				wantErr:  domain.ErrPasswordTooLong,
			},
		}

		for _, tc := range testCases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				_, err := domain.NewUser(tc.userName, tc.email, tc.password)
				assert.ErrorIs(t, err, tc.wantErr)
			})
		}
	})
}

func TestUserValidate(t *testing.T) {
	t.Parallel()

	valid := func() *domain.User {
		return &domain.User{
			ID:             uuid.New(),
			Name:           "Ada",
			Email:          "ada@example.com",
			HashedPassword: "$2a$10$somehash",
		}
	}

	t.Run("stored user with hash only is valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, valid().Validate())
	})

	t.Run("no password and no hash", func(t *testing.T) {
		t.Parallel()

		user := valid()
		user.HashedPassword = ""
		assert.ErrorIs(t, user.Validate(), domain.ErrEmptyPassword)
	})

	t.Run("bio too long", func(t *testing.T) {
		t.Parallel()

		user := valid()
		user.Bio = strings.Repeat("b", domain.MaxBioLength+1)
		assert.ErrorIs(t, user.Validate(), domain.ErrBioTooLong)
	})
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ada@example.com", domain.NormalizeEmail("  ADA@Example.Com "))
	assert.Equal(t, "", domain.NormalizeEmail("   "))
}
