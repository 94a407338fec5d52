package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/eventbus"
	"github.com/devlongs/solesub/types"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func decode(t *testing.T, p published) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(p.msg.Body, &out))
	return out
}

func TestPublishEnvelope(t *testing.T) {
	ch := &fakeChannel{}
	t0 := time.Unix(0, 0).UTC()
	bus := eventbus.New(ch, "memberships", eventbus.WithClock(func() time.Time { return t0 }))

	c := &credential.Credential{ID: 1, Holder: "alice", IssuedAt: t0, ExpiresAt: t0.Add(time.Hour)}
	require.NoError(t, bus.OnCredentialIssued(context.Background(), c))

	require.Len(t, ch.sent, 1)
	p := ch.sent[0]
	assert.Equal(t, "memberships", p.exchange)
	assert.Equal(t, "membership.credential.issued", p.key)
	assert.Equal(t, "application/json", p.msg.ContentType)
	assert.Equal(t, amqp.Persistent, p.msg.DeliveryMode)

	body := decode(t, p)
	assert.Equal(t, eventbus.EventCredentialIssued, body["type"])
	assert.Equal(t, "1970-01-01T00:00:00Z", body["occurred_at"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "alice", data["holder"])
	assert.Equal(t, float64(1), data["id"])
}

func TestHookRoutingKeys(t *testing.T) {
	ch := &fakeChannel{}
	bus := eventbus.New(ch, "memberships")
	ctx := context.Background()

	c := &credential.Credential{ID: 1, Holder: "alice"}
	require.NoError(t, bus.OnCredentialRenewed(ctx, c, c))
	require.NoError(t, bus.OnCredentialRevoked(ctx, "alice", 1))
	require.NoError(t, bus.OnPriceChanged(ctx, types.USD(1), types.USD(2)))
	require.NoError(t, bus.OnDurationChanged(ctx, time.Minute, time.Hour))
	require.NoError(t, bus.OnPauseChanged(ctx, true))
	require.NoError(t, bus.OnFundsWithdrawn(ctx, "treasury", types.USD(5)))

	var keys []string
	for _, p := range ch.sent {
		keys = append(keys, p.key)
	}
	assert.Equal(t, []string{
		"membership.credential.renewed",
		"membership.credential.revoked",
		"membership.plan.price_changed",
		"membership.plan.duration_changed",
		"membership.gate.pause_changed",
		"membership.vault.funds_withdrawn",
	}, keys)

	duration := decode(t, ch.sent[3])["data"].(map[string]any)
	assert.Equal(t, float64(60), duration["old"])
	assert.Equal(t, float64(3600), duration["new"])
}

func TestPublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	bus := eventbus.New(ch, "memberships")

	err := bus.OnPauseChanged(context.Background(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gate.pause_changed")
	assert.NoError(t, bus.Close())
}
