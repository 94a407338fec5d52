// Package memory provides an in-process admin and pause gate.
package memory

import (
	"context"
	"sync"

	"github.com/devlongs/solesub"
)

var _ solesub.Gate = (*Gate)(nil)

// Gate holds a fixed administrator set and a pause flag.
type Gate struct {
	mu     sync.RWMutex
	admins map[string]struct{}
	paused bool
}

// New creates a gate whose administrators are the given callers.
func New(admins ...string) *Gate {
	g := &Gate{admins: make(map[string]struct{}, len(admins))}
	for _, a := range admins {
		if a != "" {
			g.admins[a] = struct{}{}
		}
	}
	return g
}

func (g *Gate) IsAdmin(_ context.Context, caller string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.admins[caller]
	return ok, nil
}

func (g *Gate) IsPaused(_ context.Context) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.paused, nil
}

func (g *Gate) SetPaused(_ context.Context, paused bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.paused = paused
	return nil
}

// Grant adds an administrator.
func (g *Gate) Grant(caller string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.admins[caller] = struct{}{}
}

// Revoke removes an administrator.
func (g *Gate) Revoke(caller string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.admins, caller)
}
