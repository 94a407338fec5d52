package plugin_test

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

	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/plugin"
	"github.com/devlongs/solesub/types"
)

type recorder struct {
	name string
	mu   sync.Mutex
	seen []string
	err  error
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) record(event string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, event)
	return r.err
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func (r *recorder) OnCredentialIssued(_ context.Context, _ *credential.Credential) error {
	return r.record("issued")
}

func (r *recorder) OnCredentialRevoked(_ context.Context, _ string, _ uint64) error {
	return r.record("revoked")
}

func (r *recorder) OnPriceChanged(_ context.Context, _, _ types.Money) error {
	return r.record("price")
}

type namedOnly struct{ name string }

func (n namedOnly) Name() string { return n.name }

type slow struct{}

func (slow) Name() string { return "slow" }

func (slow) OnPauseChanged(ctx context.Context, _ bool) error {
	time.Sleep(200 * time.Millisecond)
	return nil
}

func quietRegistry() *plugin.Registry {
	return plugin.NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegisterRejectsDuplicateNames(t *testing.T) {
	r := quietRegistry()
	require.NoError(t, r.Register(namedOnly{name: "a"}))
	require.Error(t, r.Register(namedOnly{name: "a"}))
	require.NoError(t, r.Register(namedOnly{name: "b"}))

	assert.Equal(t, 2, r.Count())
	assert.Len(t, r.List(), 2)
	assert.NotNil(t, r.Get("a"))
	assert.Nil(t, r.Get("missing"))
}

func TestEmitDispatchesOnlyToImplementers(t *testing.T) {
	r := quietRegistry()
	rec := &recorder{name: "rec"}
	require.NoError(t, r.Register(rec))
	require.NoError(t, r.Register(namedOnly{name: "noop"}))

	ctx := context.Background()
	r.EmitCredentialIssued(ctx, &credential.Credential{ID: 1, Holder: "alice"})
	r.EmitCredentialRenewed(ctx, &credential.Credential{}, &credential.Credential{})
	r.EmitCredentialRevoked(ctx, "alice", 1)
	r.EmitPriceChanged(ctx, types.USD(1), types.USD(2))
	r.EmitPauseChanged(ctx, true)

	assert.Equal(t, []string{"issued", "revoked", "price"}, rec.events())
}

func TestEmitSwallowsPluginErrors(t *testing.T) {
	r := quietRegistry()
	failing := &recorder{name: "failing", err: errors.New("boom")}
	after := &recorder{name: "after"}
	require.NoError(t, r.Register(failing))
	require.NoError(t, r.Register(after))

	r.EmitCredentialRevoked(context.Background(), "alice", 1)

	assert.Equal(t, []string{"revoked"}, failing.events())
	assert.Equal(t, []string{"revoked"}, after.events())
}

func TestEmitTimesOutSlowPlugins(t *testing.T) {
	r := quietRegistry().WithTimeout(10 * time.Millisecond)
	require.NoError(t, r.Register(slow{}))

	start := time.Now()
	r.EmitPauseChanged(context.Background(), true)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}
