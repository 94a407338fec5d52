package credential

import (
	"context"
	"time"
)

// Store persists credentials. Implementations must keep at most one
// non-revoked credential per holder and reject a Create that would break it.
type Store interface {
	Create(ctx context.Context, c *Credential) error
	Get(ctx context.Context, credID uint64) (*Credential, error)
	GetByHolder(ctx context.Context, holder string) (*Credential, error)
	List(ctx context.Context, opts ListOpts) ([]*Credential, error)
	Extend(ctx context.Context, credID uint64, expiresAt, renewedAt time.Time) error
	Revoke(ctx context.Context, credID uint64, revokedAt time.Time) error
	LastID(ctx context.Context) (uint64, error)
}

// ListOpts filters credential listings. Results are ordered by ID ascending.
type ListOpts struct {
	Holder         string
	IncludeRevoked bool
	Limit          int
	Offset         int
}
