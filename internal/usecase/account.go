// Package usecase implements account registration, login and profile lookup.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmuslimabdulj/chat2k/internal/domain"
	"github.com/mmuslimabdulj/chat2k/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the cost accounts have always been hashed with
const bcryptCost = 8

var (
	ErrInvalidEmail       = errors.New("Not a valid email address!")
	ErrPasswordMismatch   = errors.New("Passwords does not match!")
	ErrUsernameRequired   = errors.New("Username is required")
	ErrEmailTaken         = errors.New("The account wasn't created")
	ErrInvalidCredentials = errors.New("Invalid username or password")
)

// UnknownUserError is returned by Login for an email with no account
type UnknownUserError struct {
	Email string
}

func (e *UnknownUserError) Error() string {
	return "Unknown user: " + e.Email
}

// RegisterRequest is the registration form
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// Accounts registers users and issues login sessions
type Accounts struct {
	store    store.Gateway
	sessions *SessionStore
}

// NewAccounts creates the account service
func NewAccounts(gw store.Gateway, sessions *SessionStore) *Accounts {
	return &Accounts{store: gw, sessions: sessions}
}

// Register validates the form, hashes the password and stores the user
func (a *Accounts) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if !IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if req.Password != req.Password2 {
		return nil, ErrPasswordMismatch
	}
	if username == "" {
		return nil, ErrUsernameRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.NewUser(username, email, string(hash))
	saved, err := a.store.InsertUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	if !saved {
		return nil, ErrEmailTaken
	}
	return user, nil
}

// Login checks the password of the account registered under email and
// returns a fresh session token
func (a *Accounts) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := a.store.FindUserByCredentialKey(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, &UnknownUserError{Email: email}
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.CredentialHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := a.sessions.GenerateToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Logout revokes a session token
func (a *Accounts) Logout(token string) {
	a.sessions.RemoveToken(token)
}

// Authenticate resolves a session token to the user id it was issued for
func (a *Accounts) Authenticate(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	session, ok := a.sessions.ValidateToken(token)
	if !ok {
		return "", false
	}
	return session.UserID, true
}

// Profile returns the user with the given id
func (a *Accounts) Profile(ctx context.Context, id string) (*domain.User, error) {
	return a.store.FindUserByID(ctx, id)
}
