package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/types"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery so emission never type-asserts.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onCredentialIssued  []OnCredentialIssued
	onCredentialRenewed []OnCredentialRenewed
	onCredentialRevoked []OnCredentialRevoked
	onPriceChanged      []OnPriceChanged
	onDurationChanged   []OnDurationChanged
	onPauseChanged      []OnPauseChanged
	onFundsWithdrawn    []OnFundsWithdrawn
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnCredentialIssued); ok {
		r.onCredentialIssued = append(r.onCredentialIssued, v)
	}
	if v, ok := p.(OnCredentialRenewed); ok {
		r.onCredentialRenewed = append(r.onCredentialRenewed, v)
	}
	if v, ok := p.(OnCredentialRevoked); ok {
		r.onCredentialRevoked = append(r.onCredentialRevoked, v)
	}
	if v, ok := p.(OnPriceChanged); ok {
		r.onPriceChanged = append(r.onPriceChanged, v)
	}
	if v, ok := p.(OnDurationChanged); ok {
		r.onDurationChanged = append(r.onDurationChanged, v)
	}
	if v, ok := p.(OnPauseChanged); ok {
		r.onPauseChanged = append(r.onPauseChanged, v)
	}
	if v, ok := p.(OnFundsWithdrawn); ok {
		r.onFundsWithdrawn = append(r.onFundsWithdrawn, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	typ  reflect.Type
	name string
}{
	{reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit"},
	{reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown"},
	{reflect.TypeOf((*OnCredentialIssued)(nil)).Elem(), "OnCredentialIssued"},
	{reflect.TypeOf((*OnCredentialRenewed)(nil)).Elem(), "OnCredentialRenewed"},
	{reflect.TypeOf((*OnCredentialRevoked)(nil)).Elem(), "OnCredentialRevoked"},
	{reflect.TypeOf((*OnPriceChanged)(nil)).Elem(), "OnPriceChanged"},
	{reflect.TypeOf((*OnDurationChanged)(nil)).Elem(), "OnDurationChanged"},
	{reflect.TypeOf((*OnPauseChanged)(nil)).Elem(), "OnPauseChanged"},
	{reflect.TypeOf((*OnFundsWithdrawn)(nil)).Elem(), "OnFundsWithdrawn"},
}

// implementedInterfaces returns the hook names the plugin implements.
func implementedInterfaces(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnInit", func() error {
			return p.OnInit(ctx, ledger)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnShutdown", func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitCredentialIssued emits a credential issued event.
func (r *Registry) EmitCredentialIssued(ctx context.Context, c *credential.Credential) {
	r.mu.RLock()
	plugins := r.onCredentialIssued
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnCredentialIssued", func() error {
			return p.OnCredentialIssued(ctx, c.Clone())
		})
	}
}

// EmitCredentialRenewed emits a credential renewed event.
func (r *Registry) EmitCredentialRenewed(ctx context.Context, oldCred, newCred *credential.Credential) {
	r.mu.RLock()
	plugins := r.onCredentialRenewed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnCredentialRenewed", func() error {
			return p.OnCredentialRenewed(ctx, oldCred.Clone(), newCred.Clone())
		})
	}
}

// EmitCredentialRevoked emits a credential revoked event.
func (r *Registry) EmitCredentialRevoked(ctx context.Context, holder string, credID uint64) {
	r.mu.RLock()
	plugins := r.onCredentialRevoked
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnCredentialRevoked", func() error {
			return p.OnCredentialRevoked(ctx, holder, credID)
		})
	}
}

// EmitPriceChanged emits a price changed event.
func (r *Registry) EmitPriceChanged(ctx context.Context, oldPrice, newPrice types.Money) {
	r.mu.RLock()
	plugins := r.onPriceChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPriceChanged", func() error {
			return p.OnPriceChanged(ctx, oldPrice, newPrice)
		})
	}
}

// EmitDurationChanged emits a duration changed event.
func (r *Registry) EmitDurationChanged(ctx context.Context, oldDuration, newDuration time.Duration) {
	r.mu.RLock()
	plugins := r.onDurationChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnDurationChanged", func() error {
			return p.OnDurationChanged(ctx, oldDuration, newDuration)
		})
	}
}

// EmitPauseChanged emits a pause changed event.
func (r *Registry) EmitPauseChanged(ctx context.Context, paused bool) {
	r.mu.RLock()
	plugins := r.onPauseChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPauseChanged", func() error {
			return p.OnPauseChanged(ctx, paused)
		})
	}
}

// EmitFundsWithdrawn emits a funds withdrawn event.
func (r *Registry) EmitFundsWithdrawn(ctx context.Context, to string, amount types.Money) {
	r.mu.RLock()
	plugins := r.onFundsWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnFundsWithdrawn", func() error {
			return p.OnFundsWithdrawn(ctx, to, amount)
		})
	}
}

func (r *Registry) dispatch(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the membership pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
