// Package redisgate keeps the admin set and pause flag in Redis so every
// daemon in a fleet sees the same switch.
package redisgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/devlongs/solesub"
)

var _ solesub.Gate = (*Gate)(nil)

const defaultKeyPrefix = "solesub:"

type Gate struct {
	rdb   redis.Cmdable
	keyNS string
}

func New(rdb redis.Cmdable, keyPrefix string) *Gate {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &Gate{rdb: rdb, keyNS: keyPrefix}
}

func (g *Gate) adminsKey() string { return g.keyNS + "admins" }
func (g *Gate) pausedKey() string { return g.keyNS + "paused" }

func (g *Gate) IsAdmin(ctx context.Context, caller string) (bool, error) {
	ok, err := g.rdb.SIsMember(ctx, g.adminsKey(), caller).Result()
	if err != nil {
		return false, fmt.Errorf("solesub/redisgate: is admin: %w", err)
	}
	return ok, nil
}

func (g *Gate) IsPaused(ctx context.Context) (bool, error) {
	val, err := g.rdb.Get(ctx, g.pausedKey()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("solesub/redisgate: is paused: %w", err)
	}
	return val == "1", nil
}

func (g *Gate) SetPaused(ctx context.Context, paused bool) error {
	val := "0"
	if paused {
		val = "1"
	}
	if err := g.rdb.Set(ctx, g.pausedKey(), val, 0).Err(); err != nil {
		return fmt.Errorf("solesub/redisgate: set paused: %w", err)
	}
	return nil
}

// Grant adds administrators to the shared set.
func (g *Gate) Grant(ctx context.Context, callers ...string) error {
	if len(callers) == 0 {
		return nil
	}
	members := make([]interface{}, len(callers))
	for i, c := range callers {
		members[i] = c
	}
	if err := g.rdb.SAdd(ctx, g.adminsKey(), members...).Err(); err != nil {
		return fmt.Errorf("solesub/redisgate: grant: %w", err)
	}
	return nil
}

// Revoke removes an administrator from the shared set.
func (g *Gate) Revoke(ctx context.Context, caller string) error {
	if err := g.rdb.SRem(ctx, g.adminsKey(), caller).Err(); err != nil {
		return fmt.Errorf("solesub/redisgate: revoke: %w", err)
	}
	return nil
}
