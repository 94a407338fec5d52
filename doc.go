// Package solesub provides a ledger of soulbound, time-bounded memberships for
// Go applications.
//
// solesub is designed as a library, not a service. Each holder owns at most
// one credential. A credential cannot be transferred and carries an expiry
// that renewal extends. It provides:
//
//   - Issuance for an exact fee, at most one live credential per holder
//   - Renewal that keeps unused time, or restarts a lapsed credential from now
//   - Validity checks that are never paused or charged
//   - Revocation by the holder or an administrator, freeing the slot
//   - Administrator control of price, duration, pause and collected funds
//   - Lifecycle hooks for audit, metrics and message bus plugins
//
// # Quick Start
//
//	import (
//	    "github.com/devlongs/solesub"
//	    "github.com/devlongs/solesub/fee"
//	    gatemem "github.com/devlongs/solesub/gate/memory"
//	    "github.com/devlongs/solesub/store/memory"
//	)
//
//	l := solesub.New(memory.New(),
//	    solesub.WithFeeCollector(fee.NewVault()),
//	    solesub.WithGate(gatemem.New("admin")),
//	    solesub.WithPlan(solesub.USD(100), 30*24*time.Hour),
//	)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	cred, err := l.Issue(ctx, "alice", solesub.USD(100))
//	ok, err := l.IsValid(ctx, "alice")
//
// # Renewal
//
// Renewing before expiry adds the duration to the current expiry. Renewing
// at or after expiry sets the expiry to now plus the duration. An expired
// credential keeps its holder's slot until it is revoked.
//
// # Identifiers
//
// Credentials are numbered 1, 2, 3 and so on. Zero means "no credential".
// A number is never issued twice, not even after revocation. Receipts,
// withdrawals and audit events use TypeIDs:
//
//	rcpt_01h2xcejqtf2nbrexx3vqjhp41  // Fee receipt
//	wdr_01h2xcejqtf2nbrexx3vqjhp41   // Withdrawal
//	aud_01h455vb4pex5vsknk084sn02q   // Audit event
//
// All monetary values use integer minor units (cents for USD).
package solesub
