package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmuslimabdulj/chat2k/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAccounts(t *testing.T) *Accounts {
	t.Helper()
	return NewAccounts(store.NewMemory(10), NewSessionStore(time.Hour))
}

func register(t *testing.T, a *Accounts, username, email, password string) string {
	t.Helper()
	u, err := a.Register(context.Background(), RegisterRequest{
		Username:  username,
		Email:     email,
		Password:  password,
		Password2: password,
	})
	require.NoError(t, err)
	return u.ID
}

func TestAccounts_Register(t *testing.T) {
	a := setupAccounts(t)

	u, err := a.Register(context.Background(), RegisterRequest{
		Username:  " alice ",
		Email:     "alice@example.com",
		Password:  "secret",
		Password2: "secret",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "secret", u.CredentialHash, "password must be stored hashed")
}

func TestAccounts_RegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"bad email", RegisterRequest{Username: "a", Email: "nope", Password: "x", Password2: "x"}, ErrInvalidEmail},
		{"password mismatch", RegisterRequest{Username: "a", Email: "a@example.com", Password: "x", Password2: "y"}, ErrPasswordMismatch},
		{"no username", RegisterRequest{Username: "  ", Email: "a@example.com", Password: "x", Password2: "x"}, ErrUsernameRequired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := setupAccounts(t)
			_, err := a.Register(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAccounts_RegisterDuplicateEmail(t *testing.T) {
	a := setupAccounts(t)
	register(t, a, "alice", "alice@example.com", "pw")

	_, err := a.Register(context.Background(), RegisterRequest{
		Username: "alice2", Email: "alice@example.com", Password: "pw", Password2: "pw",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAccounts_Login(t *testing.T) {
	a := setupAccounts(t)
	id := register(t, a, "alice", "alice@example.com", "pw")

	token, user, err := a.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	userID, ok := a.Authenticate(token)
	assert.True(t, ok)
	assert.Equal(t, id, userID)

	a.Logout(token)
	_, ok = a.Authenticate(token)
	assert.False(t, ok)
}

func TestAccounts_LoginFailures(t *testing.T) {
	a := setupAccounts(t)
	register(t, a, "alice", "alice@example.com", "pw")

	_, _, err := a.Login(context.Background(), "bob@example.com", "pw")
	var unknown *UnknownUserError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Unknown user: bob@example.com", err.Error())

	_, _, err = a.Login(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccounts_AuthenticateEmptyToken(t *testing.T) {
	a := setupAccounts(t)

	_, ok := a.Authenticate("")
	assert.False(t, ok)
}

func TestAccounts_Profile(t *testing.T) {
	a := setupAccounts(t)
	id := register(t, a, "alice", "alice@example.com", "pw")

	u, err := a.Profile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = a.Profile(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
