package domain

import (
	"github.com/google/uuid"
)

// User is a registered chat account. The core only ever reads it.
type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"mail"`
	CredentialHash string `json:"-"`
}

// NewUser creates a new User with a generated ID
func NewUser(username, email, credentialHash string) *User {
	return &User{
		ID:             uuid.New().String(),
		Username:       username,
		Email:          email,
		CredentialHash: credentialHash,
	}
}

// RosterEntry is the public view of an online user
type RosterEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Roster maps user id to the online entry
type Roster map[string]RosterEntry

// Entry returns the roster view of the user
func (u *User) Entry() RosterEntry {
	return RosterEntry{ID: u.ID, Name: u.Username}
}
