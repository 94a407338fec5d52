package credential

import "time"

// NoID is the reserved identifier meaning "no credential". It is never issued.
const NoID uint64 = 0

// Status is the derived lifecycle state of a credential at a point in time.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// Credential is a holder's non-transferable membership record.
//
// Holder is fixed at issuance. Revocation sets RevokedAt and resets ExpiresAt
// to the zero time; the record stays for history but no longer resolves to
// its holder.
type Credential struct {
	ID        uint64     `json:"id"`
	Holder    string     `json:"holder"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RenewedAt *time.Time `json:"renewed_at,omitempty"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	Renewals  int        `json:"renewals"`
}

// Revoked reports whether the credential has been revoked.
func (c *Credential) Revoked() bool {
	return c.RevokedAt != nil
}

// ValidAt reports whether the credential grants membership at now.
// Expiry is exclusive: at exactly ExpiresAt the credential is no longer valid.
func (c *Credential) ValidAt(now time.Time) bool {
	return !c.Revoked() && now.Before(c.ExpiresAt)
}

// Status returns the lifecycle state at now.
func (c *Credential) Status(now time.Time) Status {
	switch {
	case c.Revoked():
		return StatusRevoked
	case c.ValidAt(now):
		return StatusActive
	default:
		return StatusExpired
	}
}

// Remaining returns the unused time left at now, or zero once lapsed.
func (c *Credential) Remaining(now time.Time) time.Duration {
	if !c.ValidAt(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// Clone returns a deep copy so callers cannot alias store state.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	out := *c
	if c.RenewedAt != nil {
		t := *c.RenewedAt
		out.RenewedAt = &t
	}
	if c.RevokedAt != nil {
		t := *c.RevokedAt
		out.RevokedAt = &t
	}
	return &out
}
