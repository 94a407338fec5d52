// Package audithook bridges membership lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on any
// particular audit store. Callers inject a RecorderFunc adapter at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/id"
	"github.com/devlongs/solesub/plugin"
	"github.com/devlongs/solesub/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnCredentialIssued  = (*Extension)(nil)
	_ plugin.OnCredentialRenewed = (*Extension)(nil)
	_ plugin.OnCredentialRevoked = (*Extension)(nil)
	_ plugin.OnPriceChanged      = (*Extension)(nil)
	_ plugin.OnDurationChanged   = (*Extension)(nil)
	_ plugin.OnPauseChanged      = (*Extension)(nil)
	_ plugin.OnFundsWithdrawn    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry in the audit trail.
type AuditEvent struct {
	ID         id.AuditID     `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges membership lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
	clock    func() time.Time
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Credential lifecycle hooks
// ──────────────────────────────────────────────────

// OnCredentialIssued implements plugin.OnCredentialIssued.
func (e *Extension) OnCredentialIssued(ctx context.Context, c *credential.Credential) error {
	return e.record(ctx, ActionCredentialIssued, SeverityInfo, OutcomeSuccess,
		ResourceCredential, credentialID(c.ID), CategoryMembership, nil,
		"holder", c.Holder,
		"expires_at", c.ExpiresAt,
	)
}

// OnCredentialRenewed implements plugin.OnCredentialRenewed.
func (e *Extension) OnCredentialRenewed(ctx context.Context, oldCred, newCred *credential.Credential) error {
	return e.record(ctx, ActionCredentialRenewed, SeverityInfo, OutcomeSuccess,
		ResourceCredential, credentialID(newCred.ID), CategoryMembership, nil,
		"holder", newCred.Holder,
		"old_expires_at", oldCred.ExpiresAt,
		"expires_at", newCred.ExpiresAt,
		"renewals", newCred.Renewals,
	)
}

// OnCredentialRevoked implements plugin.OnCredentialRevoked.
func (e *Extension) OnCredentialRevoked(ctx context.Context, holder string, credID uint64) error {
	return e.record(ctx, ActionCredentialRevoked, SeverityWarning, OutcomeSuccess,
		ResourceCredential, credentialID(credID), CategoryMembership, nil,
		"holder", holder,
	)
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnPriceChanged implements plugin.OnPriceChanged.
func (e *Extension) OnPriceChanged(ctx context.Context, oldPrice, newPrice types.Money) error {
	return e.record(ctx, ActionPriceChanged, SeverityInfo, OutcomeSuccess,
		ResourcePlan, "", CategoryAdmin, nil,
		"old", oldPrice.String(),
		"new", newPrice.String(),
	)
}

// OnDurationChanged implements plugin.OnDurationChanged.
func (e *Extension) OnDurationChanged(ctx context.Context, oldDuration, newDuration time.Duration) error {
	return e.record(ctx, ActionDurationChanged, SeverityInfo, OutcomeSuccess,
		ResourcePlan, "", CategoryAdmin, nil,
		"old", oldDuration.String(),
		"new", newDuration.String(),
	)
}

// OnPauseChanged implements plugin.OnPauseChanged.
func (e *Extension) OnPauseChanged(ctx context.Context, paused bool) error {
	action := ActionResumed
	if paused {
		action = ActionPaused
	}
	return e.record(ctx, action, SeverityWarning, OutcomeSuccess,
		ResourceGate, "", CategoryAdmin, nil,
		"paused", paused,
	)
}

// OnFundsWithdrawn implements plugin.OnFundsWithdrawn.
func (e *Extension) OnFundsWithdrawn(ctx context.Context, to string, amount types.Money) error {
	return e.record(ctx, ActionFundsWithdrawn, SeverityCritical, OutcomeSuccess,
		ResourceVault, "", CategoryPayment, nil,
		"to", to,
		"amount", amount.Amount,
		"currency", amount.Currency,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func credentialID(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		ID:         id.NewAuditID(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
		OccurredAt: e.clock().UTC(),
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
