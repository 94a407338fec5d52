package solesub

import (
	"context"
	"time"

	"github.com/devlongs/solesub/id"
	"github.com/devlongs/solesub/types"
)

// FeeCollector verifies and takes custody of membership payments.
type FeeCollector interface {
	// Verify fails with *InsufficientFeeError unless provided equals required
	// in both amount and currency.
	Verify(required, provided types.Money) error
	// Collect credits payment to the collected balance.
	Collect(ctx context.Context, payer string, payment types.Money) (*Receipt, error)
	// Refund reverses a receipt whose ledger write did not happen.
	Refund(ctx context.Context, receipt *Receipt) error
	// Withdraw drains the collected balance to the destination.
	Withdraw(ctx context.Context, to string) (*Withdrawal, error)
	// Balance returns the collected balance per currency.
	Balance(ctx context.Context) ([]types.Money, error)
}

// Gate answers who is an administrator and whether the system is paused.
type Gate interface {
	IsAdmin(ctx context.Context, caller string) (bool, error)
	IsPaused(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error
}

// Receipt records one collected payment.
type Receipt struct {
	ID          id.ReceiptID `json:"id"`
	Payer       string       `json:"payer"`
	Amount      types.Money  `json:"amount"`
	CollectedAt time.Time    `json:"collected_at"`
}

// Withdrawal records the collected balance leaving custody.
type Withdrawal struct {
	ID          id.WithdrawalID `json:"id"`
	To          string          `json:"to"`
	Amounts     []types.Money   `json:"amounts"`
	WithdrawnAt time.Time       `json:"withdrawn_at"`
}
