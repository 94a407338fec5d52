// Package extension provides the Forge extension adapter for solesub.
//
// It implements the forge.Extension interface to integrate the membership
// ledger into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.solesub" or "solesub" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/devlongs/solesub"
	"github.com/devlongs/solesub/api"
	"github.com/devlongs/solesub/fee"
	gatemem "github.com/devlongs/solesub/gate/memory"
	"github.com/devlongs/solesub/store"
	"github.com/devlongs/solesub/store/memory"
	"github.com/devlongs/solesub/store/mongo"
	"github.com/devlongs/solesub/store/postgres"
	"github.com/devlongs/solesub/store/sqlite"
	"github.com/devlongs/solesub/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "solesub"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Soulbound membership credentials"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the membership ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *solesub.Ledger
	store      store.Store
	groveDB    *grove.DB
	fees       solesub.FeeCollector
	gate       solesub.Gate
	ledgerOpts []solesub.Option
}

// New creates a new solesub Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *solesub.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := e.resolveStore()
		if err != nil {
			return err
		}
		e.store = s
	}
	if e.fees == nil {
		e.fees = fee.NewVault()
	}
	if e.gate == nil {
		e.gate = gatemem.New(e.config.Admins...)
	}

	e.engine = solesub.New(e.store, e.buildLedgerOpts()...)

	return vessel.Provide(fapp.Container(), func() (*solesub.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("solesub: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("solesub: store not initialized")
	}
	return e.store.Ping(ctx)
}

// RegisterRoutes mounts the membership HTTP API under BasePath.
// It does nothing when routes are disabled.
func (e *Extension) RegisterRoutes(r gin.IRouter, logger *slog.Logger) {
	if e.config.DisableRoutes || e.engine == nil {
		return
	}
	api.New(e.engine, logger).Register(r.Group(e.config.BasePath))
}

// resolveStore picks the backend: a grove store when a database was given,
// otherwise the in-memory store.
func (e *Extension) resolveStore() (store.Store, error) {
	if e.groveDB == nil {
		return memory.New(), nil
	}
	return newGroveStore(e.groveDB, e.config.Driver)
}

func newGroveStore(db *grove.DB, driver string) (store.Store, error) {
	switch driver {
	case "sqlite":
		return sqlite.New(db), nil
	case "postgres", "pg":
		return postgres.New(db), nil
	case "mongo", "mongodb":
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", solesub.ErrInvalidInput, driver)
	}
}

// buildLedgerOpts constructs solesub.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []solesub.Option {
	opts := make([]solesub.Option, 0, len(e.ledgerOpts)+4)

	opts = append(opts,
		solesub.WithFeeCollector(e.fees),
		solesub.WithGate(e.gate),
		solesub.WithPlan(types.New(e.config.Price, e.config.Currency), e.config.Duration),
	)
	if e.config.DisableMigrate {
		opts = append(opts, solesub.WithoutMigrate())
	}

	// Pass-through options go last so they can override the defaults above.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("solesub: configuration is required but not found in config files; " +
				"ensure 'extensions.solesub' or 'solesub' key exists in your config")
		}

		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("solesub: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("driver", e.config.Driver),
		forge.F("price", e.config.Price),
		forge.F("currency", e.config.Currency),
		forge.F("duration", e.config.Duration),
		forge.F("admins", len(e.config.Admins)),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.solesub", "solesub"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("solesub: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("solesub: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	if cfg.Duration == 0 {
		cfg.Duration = defaults.Duration
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	if yamlConfig.BasePath == "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.Driver == "" {
		yamlConfig.Driver = programmaticConfig.Driver
	}
	if yamlConfig.Currency == "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}
	if yamlConfig.Price == 0 {
		yamlConfig.Price = programmaticConfig.Price
	}
	if yamlConfig.Duration == 0 {
		yamlConfig.Duration = programmaticConfig.Duration
	}

	// Admins from both sources are granted.
	yamlConfig.Admins = append(yamlConfig.Admins, programmaticConfig.Admins...)

	return mergeWithDefaults(yamlConfig)
}
