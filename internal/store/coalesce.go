package store

import (
	"context"
	"strconv"

	"github.com/mmuslimabdulj/chat2k/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Coalesced collapses concurrent identical reads into one backend call.
// A burst of joins asks for the same history and the same few users.
// Writes pass straight through.
type Coalesced struct {
	Gateway
	group singleflight.Group
}

// Coalesce wraps gw. Wrapping an already coalesced gateway returns it unchanged.
func Coalesce(gw Gateway) Gateway {
	if c, ok := gw.(*Coalesced); ok {
		return c
	}
	return &Coalesced{Gateway: gw}
}

func (c *Coalesced) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	v, err := c.do(ctx, "user:"+id, func(shared context.Context) (interface{}, error) {
		return c.Gateway.FindUserByID(shared, id)
	})
	if err != nil {
		return nil, err
	}
	u := *(v.(*domain.User))
	return &u, nil
}

func (c *Coalesced) FindRecentMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	v, err := c.do(ctx, "recent:"+strconv.Itoa(limit), func(shared context.Context) (interface{}, error) {
		return c.Gateway.FindRecentMessages(shared, limit)
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]domain.ChatMessage)
	out := make([]domain.ChatMessage, len(shared))
	copy(out, shared)
	return out, nil
}

// do runs fn once per key for all concurrent callers. The shared call is
// detached from any one caller's cancellation; each caller stops waiting
// when its own ctx is done.
func (c *Coalesced) do(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}
