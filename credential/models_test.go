package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCredentialStatus(t *testing.T) {
	t0 := time.Unix(0, 0).UTC()
	c := &Credential{ID: 1, Holder: "alice", IssuedAt: t0, ExpiresAt: t0.Add(1000 * time.Second)}

	assert.Equal(t, StatusActive, c.Status(t0.Add(999*time.Second)))
	assert.Equal(t, StatusExpired, c.Status(t0.Add(1000*time.Second)))
	assert.Equal(t, time.Second, c.Remaining(t0.Add(999*time.Second)))
	assert.Zero(t, c.Remaining(t0.Add(2000*time.Second)))

	revoked := t0.Add(10 * time.Second)
	c.RevokedAt = &revoked
	c.ExpiresAt = time.Time{}
	assert.Equal(t, StatusRevoked, c.Status(t0))
	assert.False(t, c.ValidAt(t0))
}

func TestCredentialClone(t *testing.T) {
	now := time.Now()
	c := &Credential{ID: 7, Holder: "bob", RenewedAt: &now}

	cp := c.Clone()
	later := now.Add(time.Hour)
	*cp.RenewedAt = later

	assert.Equal(t, now, *c.RenewedAt)
	assert.Nil(t, (*Credential)(nil).Clone())
}
