package extension

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlongs/solesub"
	audithook "github.com/devlongs/solesub/audit_hook"
	"github.com/devlongs/solesub/types"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{Price: 500})

	assert.Equal(t, int64(500), cfg.Price)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, "/membership", cfg.BasePath)
	assert.Equal(t, 30*24*time.Hour, cfg.Duration)
}

func TestMergeConfigurations(t *testing.T) {
	file := Config{Price: 900, Currency: "eur", Admins: []string{"ops"}}
	prog := Config{
		Price:          100,
		Duration:       time.Hour,
		DisableMigrate: true,
		BasePath:       "/members",
		Admins:         []string{"root"},
	}

	cfg := mergeConfigurations(file, prog)

	assert.Equal(t, int64(900), cfg.Price, "file value wins")
	assert.Equal(t, "eur", cfg.Currency)
	assert.Equal(t, time.Hour, cfg.Duration, "programmatic value fills the gap")
	assert.Equal(t, "/members", cfg.BasePath)
	assert.True(t, cfg.DisableMigrate)
	assert.ElementsMatch(t, []string{"ops", "root"}, cfg.Admins)
}

func TestOptions(t *testing.T) {
	e := New(
		WithPrice(types.GBP(250)),
		WithDuration(2*time.Hour),
		WithAdmins("root", "ops"),
		WithDisableRoutes(),
	)

	assert.Equal(t, int64(250), e.config.Price)
	assert.Equal(t, "gbp", e.config.Currency)
	assert.Equal(t, 2*time.Hour, e.config.Duration)
	assert.Equal(t, []string{"root", "ops"}, e.config.Admins)
	assert.True(t, e.config.DisableRoutes)
	assert.Nil(t, e.Engine())
}

func TestResolveStoreDefaultsToMemory(t *testing.T) {
	e := New()
	s, err := e.resolveStore()
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestNewGroveStoreUnknownDriver(t *testing.T) {
	_, err := newGroveStore(nil, "cassandra")
	require.ErrorIs(t, err, solesub.ErrInvalidInput)
}

func TestWithAuditRecorderAddsPlugin(t *testing.T) {
	rec := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error { return nil })
	e := New(WithAuditRecorder(rec, audithook.WithDisabledActions(audithook.ActionFundsWithdrawn)))

	assert.Len(t, e.ledgerOpts, 1)
	assert.Len(t, e.buildLedgerOpts(), 4)
}
