package solesub_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/devlongs/solesub"
	"github.com/devlongs/solesub/fee"
	gatemem "github.com/devlongs/solesub/gate/memory"
	"github.com/devlongs/solesub/store/memory"
	"github.com/devlongs/solesub/types"
)

// TestDocumentationExamples verifies that the package documentation examples run.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Memory store for the demo; use postgres or mongo in production.
		store := memory.New()

		l := solesub.New(store,
			solesub.WithLogger(slog.Default()),
			solesub.WithFeeCollector(fee.NewVault()),
			solesub.WithGate(gatemem.New("admin")),
			solesub.WithPlan(solesub.USD(100), 30*24*time.Hour),
		)

		ctx := context.Background()
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		cred, err := l.Issue(ctx, "alice", solesub.USD(100))
		if err != nil {
			t.Fatal(err)
		}
		if cred.ID != 1 {
			t.Fatalf("expected first credential to be 1, got %d", cred.ID)
		}

		ok, err := l.IsValid(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected alice to be a member")
		}

		if _, err := l.Renew(ctx, "alice", solesub.USD(100)); err != nil {
			t.Fatal(err)
		}

		if err := l.Revoke(ctx, cred.ID, "alice"); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("MoneyExamples", func(t *testing.T) {
		m1 := types.USD(100)
		m2 := types.USD(200)

		if got := m1.Add(m2).String(); got != "$3.00" {
			t.Fatalf("unexpected sum %s", got)
		}
		if got := m1.FormatMajor(); got != "1.00" {
			t.Fatalf("unexpected major %s", got)
		}
	})
}
