package solesub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenewedExpiry(t *testing.T) {
	t0 := time.Unix(0, 0).UTC()
	d := 1000 * time.Second
	at := func(s int64) time.Time { return t0.Add(time.Duration(s) * time.Second) }

	tests := []struct {
		name    string
		current time.Time
		now     time.Time
		want    time.Time
	}{
		{"rollover", at(1000), at(500), at(2000)},
		{"rollover one second before expiry", at(1000), at(999), at(2000)},
		{"equality is lapsed", at(1000), at(1000), at(2000)},
		{"lapsed restarts from now", at(1000), at(2000), at(3000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renewedExpiry(tt.current, tt.now, d))
		})
	}
}

func TestCheckMovement(t *testing.T) {
	assert.NoError(t, checkMovement("", "alice"))
	assert.NoError(t, checkMovement("alice", ""))
	assert.ErrorIs(t, checkMovement("alice", "bob"), ErrTransferNotAllowed)
	assert.ErrorIs(t, checkMovement("alice", "alice"), ErrTransferNotAllowed)
	assert.ErrorIs(t, checkMovement("", ""), ErrInvalidInput)
}

func TestSequenceNeverGoesBack(t *testing.T) {
	var s sequence
	assert.Equal(t, uint64(1), s.next())

	s.seed(10)
	assert.Equal(t, uint64(11), s.next())

	s.seed(3)
	assert.Equal(t, uint64(12), s.next())
}

func TestErrorHelpers(t *testing.T) {
	feeErr := &InsufficientFeeError{}
	assert.ErrorIs(t, feeErr, ErrInsufficientFee)
	assert.True(t, IsPrecondition(feeErr))
	assert.True(t, IsPrecondition(ErrPaused))
	assert.False(t, IsPrecondition(ErrStoreClosed))

	assert.True(t, IsNotFound(ErrNoCredential))
	assert.True(t, IsNotFound(ErrPlanNotFound))
	assert.False(t, IsNotFound(ErrUnauthorized))
}
