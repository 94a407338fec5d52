package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/devlongs/solesub"
	audithook "github.com/devlongs/solesub/audit_hook"
	"github.com/devlongs/solesub/observability"
	"github.com/devlongs/solesub/plugin"
	"github.com/devlongs/solesub/store"
	"github.com/devlongs/solesub/types"
)

// Option configures the solesub Forge extension.
type Option func(*Extension)

// WithStore sets the store for the membership ledger.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store from a grove database. driver is one of
// "sqlite", "postgres" or "mongo" and must match how db was opened.
func WithGroveDB(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.Driver = driver
	}
}

// WithLedgerOption passes a solesub.Option through to the underlying ledger.
func WithLedgerOption(opt solesub.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, solesub.WithPlugin(p))
	}
}

// WithFeeCollector replaces the in-process fee vault.
func WithFeeCollector(fc solesub.FeeCollector) Option {
	return func(e *Extension) { e.fees = fc }
}

// WithGate replaces the in-memory admin and pause gate.
func WithGate(g solesub.Gate) Option {
	return func(e *Extension) { e.gate = g }
}

// WithMetrics records lifecycle metrics through factory.
func WithMetrics(factory observability.MetricFactory) Option {
	return WithPlugin(observability.NewMetricsExtension(factory))
}

// WithAuditRecorder forwards lifecycle events to an audit trail.
func WithAuditRecorder(r audithook.Recorder, opts ...audithook.Option) Option {
	return WithPlugin(audithook.New(r, opts...))
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for membership routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithPrice sets the fee that seeds the plan on first start.
func WithPrice(price types.Money) Option {
	return func(e *Extension) {
		e.config.Price = price.Amount
		e.config.Currency = price.Currency
	}
}

// WithDuration sets the membership duration that seeds the plan.
func WithDuration(d time.Duration) Option {
	return func(e *Extension) { e.config.Duration = d }
}

// WithAdmins grants admin rights on the default gate.
func WithAdmins(admins ...string) Option {
	return func(e *Extension) {
		e.config.Admins = append(e.config.Admins, admins...)
	}
}
