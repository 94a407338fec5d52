package audithook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audithook "github.com/devlongs/solesub/audit_hook"
	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/id"
	"github.com/devlongs/solesub/types"
)

type sink struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (s *sink) Record(_ context.Context, evt *audithook.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func TestCredentialEvents(t *testing.T) {
	s := &sink{}
	ext := audithook.New(s)
	ctx := context.Background()
	t0 := time.Unix(0, 0).UTC()

	old := &credential.Credential{ID: 3, Holder: "alice", ExpiresAt: t0.Add(time.Hour)}
	renewed := old.Clone()
	renewed.ExpiresAt = t0.Add(2 * time.Hour)
	renewed.Renewals = 1

	require.NoError(t, ext.OnCredentialIssued(ctx, old))
	require.NoError(t, ext.OnCredentialRenewed(ctx, old, renewed))
	require.NoError(t, ext.OnCredentialRevoked(ctx, "alice", 3))

	require.Len(t, s.events, 3)

	issued := s.events[0]
	assert.Equal(t, audithook.ActionCredentialIssued, issued.Action)
	assert.Equal(t, audithook.ResourceCredential, issued.Resource)
	assert.Equal(t, "3", issued.ResourceID)
	assert.Equal(t, "alice", issued.Metadata["holder"])
	assert.Equal(t, id.PrefixAudit, issued.ID.Prefix())

	assert.Equal(t, renewed.ExpiresAt, s.events[1].Metadata["expires_at"])
	assert.Equal(t, old.ExpiresAt, s.events[1].Metadata["old_expires_at"])
	assert.Equal(t, audithook.SeverityWarning, s.events[2].Severity)
}

func TestAdminEvents(t *testing.T) {
	s := &sink{}
	ext := audithook.New(s)
	ctx := context.Background()

	require.NoError(t, ext.OnPriceChanged(ctx, types.USD(100), types.USD(200)))
	require.NoError(t, ext.OnDurationChanged(ctx, time.Hour, 2*time.Hour))
	require.NoError(t, ext.OnPauseChanged(ctx, true))
	require.NoError(t, ext.OnPauseChanged(ctx, false))
	require.NoError(t, ext.OnFundsWithdrawn(ctx, "treasury", types.USD(500)))

	require.Len(t, s.events, 5)
	assert.Equal(t, "$1.00", s.events[0].Metadata["old"])
	assert.Equal(t, "$2.00", s.events[0].Metadata["new"])
	assert.Equal(t, "2h0m0s", s.events[1].Metadata["new"])
	assert.Equal(t, audithook.ActionPaused, s.events[2].Action)
	assert.Equal(t, audithook.ActionResumed, s.events[3].Action)
	assert.Equal(t, int64(500), s.events[4].Metadata["amount"])
}

func TestActionFiltering(t *testing.T) {
	ctx := context.Background()

	s := &sink{}
	ext := audithook.New(s, audithook.WithEnabledActions(audithook.ActionCredentialRevoked))
	require.NoError(t, ext.OnCredentialIssued(ctx, &credential.Credential{ID: 1}))
	require.NoError(t, ext.OnCredentialRevoked(ctx, "alice", 1))
	require.Len(t, s.events, 1)
	assert.Equal(t, audithook.ActionCredentialRevoked, s.events[0].Action)

	s = &sink{}
	ext = audithook.New(s, audithook.WithDisabledActions(audithook.ActionCredentialIssued))
	require.NoError(t, ext.OnCredentialIssued(ctx, &credential.Credential{ID: 1}))
	require.NoError(t, ext.OnCredentialRevoked(ctx, "alice", 1))
	require.Len(t, s.events, 1)
}

func TestRecorderFailureIsLogged(t *testing.T) {
	failing := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("unavailable")
	})
	ext := audithook.New(failing, audithook.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	assert.NoError(t, ext.OnCredentialRevoked(context.Background(), "alice", 1))
}
