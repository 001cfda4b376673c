package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u := NewUser("alice", "alice@example.com", "hash")

	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, u.ID, NewUser("alice", "alice@example.com", "hash").ID)
	assert.Equal(t, RosterEntry{ID: u.ID, Name: "alice"}, u.Entry())
}

func TestUser_JSONHidesCredential(t *testing.T) {
	data, err := json.Marshal(User{ID: "1", Username: "alice", Email: "a@example.com", CredentialHash: "secret"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":"1","username":"alice","mail":"a@example.com"}`, string(data))
}

func TestNewChatMessage(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123)
	m := NewChatMessage("alice", "hi", at)

	assert.Equal(t, int64(1_700_000_000_123), m.Timestamp)
	assert.True(t, m.Time().Equal(at))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"alice","message":"hi","timestamp":1700000000123}`, string(data))
}

func TestOldestFirst(t *testing.T) {
	m1 := ChatMessage{Body: "m1", Timestamp: 1}
	m2 := ChatMessage{Body: "m2", Timestamp: 2}
	m3 := ChatMessage{Body: "m3", Timestamp: 3}
	newest := []ChatMessage{m3, m2, m1}

	assert.Equal(t, []ChatMessage{m1, m2, m3}, OldestFirst(newest))
	assert.Equal(t, []ChatMessage{m3, m2, m1}, newest, "input is not modified")
	assert.Empty(t, OldestFirst(nil))
}

func TestEncodeEvent(t *testing.T) {
	data, err := EncodeEvent(EventWhosHere, WhosHerePayload{Users: Roster{"1": {ID: "1", Name: "alice"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"whoshere","payload":{"users":{"1":{"id":"1","name":"alice"}}}}`, string(data))

	data, err = EncodeEvent(EventNewMessage, Notice{Message: NoticeUnauthenticated})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"new message","payload":{"message":"<em>You must log in before chatting. That's the rule</em>"}}`, string(data))

	_, err = EncodeEvent(EventHistory, make(chan int))
	assert.Error(t, err)
}

func TestIdentityFromPayload(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`"abc-123"`, "abc-123", false},
		{`1`, "1", false},
		{`{"id":"1"}`, "", true},
		{`null`, "", false},
		{`[1]`, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := IdentityFromPayload(json.RawMessage(tc.raw))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestError_IsAndKindOf(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("submit: %w", NewError(KindPersistenceFailure, "insert", cause))

	assert.True(t, errors.Is(err, ErrPersistenceFailure))
	assert.False(t, errors.Is(err, ErrUnauthenticated))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindPersistenceFailure, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(cause))
	assert.Equal(t, "insert: persistence failure: disk full", NewError(KindPersistenceFailure, "insert", cause).Error())
	assert.Equal(t, "unauthenticated", ErrUnauthenticated.Error())
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "unresolved identity", KindUnresolvedIdentity.String())
	assert.Equal(t, "anomalous disconnect", KindAnomalousDisconnect.String())
	assert.Equal(t, "unknown", ErrorKind(42).String())
}
