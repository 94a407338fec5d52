package store

import (
	"context"

	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/plan"
)

// Store is the unified storage interface for all membership entities.
// Every backend (memory, sqlite, postgres, mongo) implements it in full.
type Store interface {
	credential.Store
	plan.Store

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
