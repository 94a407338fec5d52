// Package observability provides a metrics extension for solesub that records
// lifecycle event counts through a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/plugin"
	"github.com/devlongs/solesub/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnCredentialIssued  = (*MetricsExtension)(nil)
	_ plugin.OnCredentialRenewed = (*MetricsExtension)(nil)
	_ plugin.OnCredentialRevoked = (*MetricsExtension)(nil)
	_ plugin.OnPriceChanged      = (*MetricsExtension)(nil)
	_ plugin.OnDurationChanged   = (*MetricsExtension)(nil)
	_ plugin.OnPauseChanged      = (*MetricsExtension)(nil)
	_ plugin.OnFundsWithdrawn    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Ledger plugin to track membership metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Credential metrics
	CredentialIssued  Counter
	CredentialRenewed Counter
	CredentialRevoked Counter
	RenewalRollover   Counter
	RenewalRestart    Counter
	RenewalExtension  Histogram // seconds added to the expiry

	// Admin metrics
	PriceChanged    Counter
	DurationChanged Counter
	Paused          Counter
	Resumed         Counter

	// Treasury metrics
	Withdrawals     Counter
	WithdrawnAmount Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		CredentialIssued:  factory.Counter("solesub.credential.issued"),
		CredentialRenewed: factory.Counter("solesub.credential.renewed"),
		CredentialRevoked: factory.Counter("solesub.credential.revoked"),
		RenewalRollover:   factory.Counter("solesub.renewal.rollover"),
		RenewalRestart:    factory.Counter("solesub.renewal.restart"),
		RenewalExtension:  factory.Histogram("solesub.renewal.extension_seconds"),

		PriceChanged:    factory.Counter("solesub.plan.price_changed"),
		DurationChanged: factory.Counter("solesub.plan.duration_changed"),
		Paused:          factory.Counter("solesub.gate.paused"),
		Resumed:         factory.Counter("solesub.gate.resumed"),

		Withdrawals:     factory.Counter("solesub.vault.withdrawals"),
		WithdrawnAmount: factory.Histogram("solesub.vault.withdrawn_minor_units"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Credential lifecycle hooks
// ──────────────────────────────────────────────────

// OnCredentialIssued implements plugin.OnCredentialIssued.
func (m *MetricsExtension) OnCredentialIssued(_ context.Context, _ *credential.Credential) error {
	m.CredentialIssued.Inc()
	return nil
}

// OnCredentialRenewed implements plugin.OnCredentialRenewed.
// A renewal made at or after the old expiry counts as a restart.
func (m *MetricsExtension) OnCredentialRenewed(_ context.Context, oldCred, newCred *credential.Credential) error {
	m.CredentialRenewed.Inc()

	added := newCred.ExpiresAt.Sub(oldCred.ExpiresAt)
	m.RenewalExtension.Observe(added.Seconds())

	if newCred.RenewedAt != nil && !newCred.RenewedAt.Before(oldCred.ExpiresAt) {
		m.RenewalRestart.Inc()
	} else {
		m.RenewalRollover.Inc()
	}
	return nil
}

// OnCredentialRevoked implements plugin.OnCredentialRevoked.
func (m *MetricsExtension) OnCredentialRevoked(_ context.Context, _ string, _ uint64) error {
	m.CredentialRevoked.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnPriceChanged implements plugin.OnPriceChanged.
func (m *MetricsExtension) OnPriceChanged(_ context.Context, _, _ types.Money) error {
	m.PriceChanged.Inc()
	return nil
}

// OnDurationChanged implements plugin.OnDurationChanged.
func (m *MetricsExtension) OnDurationChanged(_ context.Context, _, _ time.Duration) error {
	m.DurationChanged.Inc()
	return nil
}

// OnPauseChanged implements plugin.OnPauseChanged.
func (m *MetricsExtension) OnPauseChanged(_ context.Context, paused bool) error {
	if paused {
		m.Paused.Inc()
	} else {
		m.Resumed.Inc()
	}
	return nil
}

// OnFundsWithdrawn implements plugin.OnFundsWithdrawn.
func (m *MetricsExtension) OnFundsWithdrawn(_ context.Context, _ string, amount types.Money) error {
	m.Withdrawals.Inc()
	m.WithdrawnAmount.Observe(float64(amount.Amount))
	return nil
}
