package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlongs/solesub/gate/memory"
)

func TestAdmins(t *testing.T) {
	ctx := context.Background()
	g := memory.New("root", "")

	ok, err := g.IsAdmin(ctx, "root")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = g.IsAdmin(ctx, "")
	assert.False(t, ok)

	g.Grant("ops")
	ok, _ = g.IsAdmin(ctx, "ops")
	assert.True(t, ok)

	g.Revoke("ops")
	ok, _ = g.IsAdmin(ctx, "ops")
	assert.False(t, ok)
}

func TestPause(t *testing.T) {
	ctx := context.Background()
	g := memory.New()

	paused, err := g.IsPaused(ctx)
	require.NoError(t, err)
	assert.False(t, paused)

	require.NoError(t, g.SetPaused(ctx, true))
	paused, _ = g.IsPaused(ctx)
	assert.True(t, paused)
}
