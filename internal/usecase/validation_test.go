package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected bool
	}{
		{"Plain", "alice@example.com", true},
		{"Subdomain", "bob.smith@mail.example.org", true},
		{"Quoted local part", `"odd name"@example.com`, true},
		{"IP literal", "root@[10.0.0.1]", true},
		{"Empty", "", false},
		{"No at", "alice.example.com", false},
		{"No TLD", "alice@localhost", false},
		{"Space", "ali ce@example.com", false},
		{"Double dot", "alice..b@example.com", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsValidEmail(tc.email), "IsValidEmail(%q)", tc.email)
		})
	}
}
