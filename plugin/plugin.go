// Package plugin provides an extensible plugin system for solesub.
// Plugins hook into membership lifecycle events. The ledger never acts on
// what a plugin returns: errors are logged and dropped.
package plugin

import (
	"context"
	"time"

	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Credential lifecycle hooks
// ──────────────────────────────────────────────────

// OnCredentialIssued is called after a new credential is persisted.
type OnCredentialIssued interface {
	Plugin
	OnCredentialIssued(ctx context.Context, c *credential.Credential) error
}

// OnCredentialRenewed is called after a renewal with the before and after state.
type OnCredentialRenewed interface {
	Plugin
	OnCredentialRenewed(ctx context.Context, oldCred, newCred *credential.Credential) error
}

// OnCredentialRevoked is called after a credential is revoked.
type OnCredentialRevoked interface {
	Plugin
	OnCredentialRevoked(ctx context.Context, holder string, credID uint64) error
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnPriceChanged is called when the membership price changes.
type OnPriceChanged interface {
	Plugin
	OnPriceChanged(ctx context.Context, oldPrice, newPrice types.Money) error
}

// OnDurationChanged is called when the membership duration changes.
type OnDurationChanged interface {
	Plugin
	OnDurationChanged(ctx context.Context, oldDuration, newDuration time.Duration) error
}

// OnPauseChanged is called when issuance and renewal are paused or resumed.
type OnPauseChanged interface {
	Plugin
	OnPauseChanged(ctx context.Context, paused bool) error
}

// OnFundsWithdrawn is called after collected fees leave the vault.
type OnFundsWithdrawn interface {
	Plugin
	OnFundsWithdrawn(ctx context.Context, to string, amount types.Money) error
}
