package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmuslimabdulj/chat2k/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowGateway counts history reads and holds each one open until released.
type slowGateway struct {
	*Memory
	calls   atomic.Int32
	release chan struct{}
}

func (s *slowGateway) FindRecentMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	s.calls.Add(1)
	<-s.release
	return s.Memory.FindRecentMessages(ctx, limit)
}

func TestCoalesced_SharesConcurrentReads(t *testing.T) {
	ctx := context.Background()
	backend := &slowGateway{Memory: NewMemory(10), release: make(chan struct{})}
	_, err := backend.InsertMessage(ctx, domain.ChatMessage{From: "a", Body: "hi", Timestamp: 1})
	require.NoError(t, err)

	gw := Coalesce(backend)

	const readers = 8
	var wg sync.WaitGroup
	results := make([][]domain.ChatMessage, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msgs, err := gw.FindRecentMessages(ctx, 10)
			assert.NoError(t, err)
			results[i] = msgs
		}(i)
	}

	// let every reader join the in-flight call before releasing it
	time.Sleep(50 * time.Millisecond)
	close(backend.release)
	wg.Wait()

	assert.Equal(t, int32(1), backend.calls.Load())
	for _, r := range results {
		require.Len(t, r, 1)
	}

	// callers get private copies
	results[0][0].Body = "changed"
	assert.Equal(t, "hi", results[1][0].Body)
}

func TestCoalesce_Idempotent(t *testing.T) {
	gw := Coalesce(NewMemory(1))
	assert.Same(t, gw, Coalesce(gw))
}

// blockingUserGateway holds user lookups until released or the caller's ctx ends
type blockingUserGateway struct {
	*Memory
	calls   atomic.Int32
	release chan struct{}
}

func (b *blockingUserGateway) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	b.calls.Add(1)
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.Memory.FindUserByID(ctx, id)
}

func TestCoalesced_CancelledCallerDoesNotFailOthers(t *testing.T) {
	backend := &blockingUserGateway{Memory: NewMemory(10), release: make(chan struct{})}
	alice := domain.NewUser("alice", "alice@example.com", "h")
	_, err := backend.InsertUser(context.Background(), alice)
	require.NoError(t, err)

	gw := Coalesce(backend)

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := gw.FindUserByID(first, alice.ID)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return backend.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		user *domain.User
		err  error
	}
	second := make(chan result, 1)
	go func() {
		u, err := gw.FindUserByID(context.Background(), alice.ID)
		second <- result{u, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(backend.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "alice", res.user.Username)
	assert.Equal(t, int32(1), backend.calls.Load(), "the second caller joined the first lookup")
}

func TestCoalesced_CallerStopsWaitingOnCancel(t *testing.T) {
	backend := &slowGateway{Memory: NewMemory(10), release: make(chan struct{})}
	defer close(backend.release)
	gw := Coalesce(backend)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := gw.FindRecentMessages(ctx, 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
