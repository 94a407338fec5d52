// Package fee holds collected membership payments.
//
// Vault checks that a payment matches the price exactly, keeps a
// per-currency balance of what it collected and pays that balance out on
// withdrawal. Every movement is kept as a receipt or withdrawal record.
package fee

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/devlongs/solesub"
	"github.com/devlongs/solesub/id"
	"github.com/devlongs/solesub/types"
)

var _ solesub.FeeCollector = (*Vault)(nil)

// Vault is an in-process FeeCollector.
type Vault struct {
	mu          sync.Mutex
	balance     map[string]types.Money
	receipts    map[string]*solesub.Receipt
	withdrawals []*solesub.Withdrawal
	clock       func() time.Time
}

// Option configures a Vault.
type Option func(*Vault)

// WithClock replaces time.Now for receipt timestamps.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		v.clock = now
	}
}

// NewVault creates an empty vault.
func NewVault(opts ...Option) *Vault {
	v := &Vault{
		balance:  make(map[string]types.Money),
		receipts: make(map[string]*solesub.Receipt),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify fails unless provided matches required in amount and currency.
// Overpayment is rejected the same as underpayment.
func (v *Vault) Verify(required, provided types.Money) error {
	if !required.Equal(provided) {
		return &solesub.InsufficientFeeError{Required: required, Provided: provided}
	}
	return nil
}

func (v *Vault) Collect(_ context.Context, payer string, payment types.Money) (*solesub.Receipt, error) {
	if payment.IsNegative() {
		return nil, solesub.ErrInvalidInput
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	r := &solesub.Receipt{
		ID:          id.NewReceiptID(),
		Payer:       payer,
		Amount:      payment,
		CollectedAt: v.clock().UTC(),
	}
	v.credit(payment)
	v.receipts[r.ID.String()] = r

	out := *r
	return &out, nil
}

func (v *Vault) Refund(_ context.Context, receipt *solesub.Receipt) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	r, ok := v.receipts[receipt.ID.String()]
	if !ok {
		return solesub.ErrInvalidInput
	}
	v.debit(r.Amount)
	delete(v.receipts, receipt.ID.String())
	return nil
}

func (v *Vault) Withdraw(_ context.Context, to string) (*solesub.Withdrawal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	amounts := v.positiveBalances()
	if len(amounts) == 0 {
		return nil, solesub.ErrNothingToWithdraw
	}

	w := &solesub.Withdrawal{
		ID:          id.NewWithdrawalID(),
		To:          to,
		Amounts:     amounts,
		WithdrawnAt: v.clock().UTC(),
	}
	for _, m := range amounts {
		v.debit(m)
	}
	v.withdrawals = append(v.withdrawals, w)
	return w, nil
}

func (v *Vault) Balance(_ context.Context) ([]types.Money, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.positiveBalances(), nil
}

// Receipts returns the number of receipts held.
func (v *Vault) Receipts() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.receipts)
}

// Withdrawals returns past withdrawals, oldest first.
func (v *Vault) Withdrawals() []*solesub.Withdrawal {
	v.mu.Lock()
	defer v.mu.Unlock()

	result := make([]*solesub.Withdrawal, len(v.withdrawals))
	copy(result, v.withdrawals)
	return result
}

// credit and debit must be called with v.mu held. Balances are keyed by the
// normalised currency code so Add and Subtract never see a mismatch.
func (v *Vault) credit(m types.Money) {
	m = types.New(m.Amount, m.Currency)
	cur, ok := v.balance[m.Currency]
	if !ok {
		cur = types.Zero(m.Currency)
	}
	v.balance[m.Currency] = cur.Add(m)
}

func (v *Vault) debit(m types.Money) {
	m = types.New(m.Amount, m.Currency)
	cur, ok := v.balance[m.Currency]
	if !ok {
		cur = types.Zero(m.Currency)
	}
	v.balance[m.Currency] = cur.Subtract(m)
}

// positiveBalances must be called with v.mu held.
func (v *Vault) positiveBalances() []types.Money {
	result := make([]types.Money, 0, len(v.balance))
	for _, m := range v.balance {
		if m.IsPositive() {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Currency < result[j].Currency })
	return result
}
