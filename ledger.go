package solesub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/plan"
	"github.com/devlongs/solesub/plugin"
	"github.com/devlongs/solesub/store"
	"github.com/devlongs/solesub/types"
)

// Ledger is the membership engine. It owns every credential record and the
// holder mapping; nothing else mutates them.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	fees    FeeCollector
	gate    Gate
	clock   func() time.Time

	// Terms written to the store on first start.
	defaultPlan *plan.Plan
	skipMigrate bool

	// mu is held for the whole read-check-write of every mutating operation.
	mu      sync.Mutex
	seq     sequence
	started bool
}

// sequence hands out credential identifiers. It only moves forward and
// starts above the highest identifier the store has ever seen, so an
// identifier is never reused even when the write after allocation fails.
type sequence struct {
	last uint64
}

func (s *sequence) seed(last uint64) {
	if last > s.last {
		s.last = last
	}
}

func (s *sequence) next() uint64 {
	s.last++
	return s.last
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		clock:   time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithFeeCollector sets the collaborator that verifies and holds payments.
func WithFeeCollector(fc FeeCollector) Option {
	return func(l *Ledger) {
		l.fees = fc
	}
}

// WithGate sets the admin and pause gate.
func WithGate(g Gate) Option {
	return func(l *Ledger) {
		l.gate = g
	}
}

// WithPlan sets the price and duration used when the store holds no plan yet.
// A plan already persisted by an earlier run takes precedence.
func WithPlan(price types.Money, duration time.Duration) Option {
	return func(l *Ledger) {
		l.defaultPlan = &plan.Plan{Price: price, Duration: duration}
	}
}

// WithClock replaces time.Now. Tests use it to pin the current time.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = now
	}
}

// WithoutMigrate makes Start trust that the schema already exists.
func WithoutMigrate() Option {
	return func(l *Ledger) {
		l.skipMigrate = true
	}
}

// Start migrates the store, loads the plan and seeds the identifier sequence.
func (l *Ledger) Start(ctx context.Context) error {
	if l.fees == nil || l.gate == nil {
		return fmt.Errorf("%w: fee collector and gate are required", ErrInvalidInput)
	}

	if !l.skipMigrate {
		if err := l.store.Migrate(ctx); err != nil {
			return err
		}
	}

	p, err := l.loadPlan(ctx)
	if err != nil {
		return err
	}

	last, err := l.store.LastID(ctx)
	if err != nil {
		return fmt.Errorf("solesub: seed sequence: %w", err)
	}

	l.mu.Lock()
	l.seq.seed(last)
	l.started = true
	l.mu.Unlock()

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("solesub started",
		"last_credential_id", last,
		"price", p.Price.String(),
		"duration", p.Duration,
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	l.mu.Lock()
	l.started = false
	l.mu.Unlock()

	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

func (l *Ledger) loadPlan(ctx context.Context) (*plan.Plan, error) {
	p, err := l.store.GetPlan(ctx)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrPlanNotFound) {
		return nil, err
	}
	if l.defaultPlan == nil {
		return nil, err
	}

	seeded := *l.defaultPlan
	seeded.Entity = types.NewEntity(l.clock())
	if err := seeded.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := l.store.SavePlan(ctx, &seeded); err != nil {
		return nil, err
	}
	return &seeded, nil
}

// ready must be called with l.mu held.
func (l *Ledger) ready() error {
	if !l.started {
		return ErrNotStarted
	}
	return nil
}

// ──────────────────────────────────────────────────
// Membership lifecycle
// ──────────────────────────────────────────────────

// Issue creates a credential for a holder who has none. The holder must pay
// the current price exactly. An expired credential still occupies the slot;
// only revocation frees it.
func (l *Ledger) Issue(ctx context.Context, holder string, payment types.Money) (*credential.Credential, error) {
	if holder == "" {
		return nil, fmt.Errorf("%w: holder is required", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ready(); err != nil {
		return nil, err
	}
	now := l.clock()

	if err := l.checkNotPaused(ctx); err != nil {
		return nil, err
	}

	p, err := l.store.GetPlan(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.fees.Verify(p.Price, payment); err != nil {
		return nil, err
	}

	_, err = l.store.GetByHolder(ctx, holder)
	switch {
	case err == nil:
		return nil, ErrAlreadyEnrolled
	case !errors.Is(err, ErrNoCredential):
		return nil, err
	}

	if err := checkMovement("", holder); err != nil {
		return nil, err
	}

	receipt, err := l.fees.Collect(ctx, holder, payment)
	if err != nil {
		return nil, err
	}

	c := &credential.Credential{
		ID:        l.seq.next(),
		Holder:    holder,
		IssuedAt:  now,
		ExpiresAt: now.Add(p.Duration),
	}
	if err := l.store.Create(ctx, c); err != nil {
		l.refund(ctx, receipt, err)
		return nil, err
	}

	l.logger.Info("credential issued",
		"holder", holder,
		"credential_id", c.ID,
		"expires_at", c.ExpiresAt,
	)
	l.plugins.EmitCredentialIssued(ctx, c)

	return c, nil
}

// Renew extends the holder's credential by the current duration. A credential
// renewed before it lapses keeps its remaining time; one renewed at or after
// its expiry restarts from now.
func (l *Ledger) Renew(ctx context.Context, holder string, payment types.Money) (*credential.Credential, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ready(); err != nil {
		return nil, err
	}
	now := l.clock()

	if err := l.checkNotPaused(ctx); err != nil {
		return nil, err
	}

	p, err := l.store.GetPlan(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.fees.Verify(p.Price, payment); err != nil {
		return nil, err
	}

	existing, err := l.store.GetByHolder(ctx, holder)
	if err != nil {
		return nil, err
	}

	expiresAt := renewedExpiry(existing.ExpiresAt, now, p.Duration)

	receipt, err := l.fees.Collect(ctx, holder, payment)
	if err != nil {
		return nil, err
	}

	if err := l.store.Extend(ctx, existing.ID, expiresAt, now); err != nil {
		l.refund(ctx, receipt, err)
		return nil, err
	}

	renewed := existing.Clone()
	renewed.ExpiresAt = expiresAt
	renewed.RenewedAt = &now
	renewed.Renewals++

	l.logger.Info("credential renewed",
		"holder", holder,
		"credential_id", existing.ID,
		"old_expires_at", existing.ExpiresAt,
		"expires_at", expiresAt,
	)
	l.plugins.EmitCredentialRenewed(ctx, existing, renewed)

	return renewed, nil
}

// renewedExpiry computes the expiry after a renewal of length d at now.
// now == current counts as lapsed.
func renewedExpiry(current, now time.Time, d time.Duration) time.Time {
	if !now.Before(current) {
		return now.Add(d)
	}
	return current.Add(d)
}

// IsValid reports whether the holder has a credential that has not expired.
// It is never paused or fee-gated.
func (l *Ledger) IsValid(ctx context.Context, holder string) (bool, error) {
	now := l.clock()

	c, err := l.store.GetByHolder(ctx, holder)
	if errors.Is(err, ErrNoCredential) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.ValidAt(now), nil
}

// Revoke terminates a credential and frees its holder's slot. The requester
// must be the holder or an administrator. Revoke is not gated by pause.
func (l *Ledger) Revoke(ctx context.Context, credID uint64, requester string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ready(); err != nil {
		return err
	}
	now := l.clock()

	if credID == credential.NoID {
		return ErrInvalidIdentifier
	}
	c, err := l.store.Get(ctx, credID)
	if errors.Is(err, ErrCredentialNotFound) {
		return ErrInvalidIdentifier
	}
	if err != nil {
		return err
	}
	if c.Revoked() {
		return ErrInvalidIdentifier
	}

	if requester != c.Holder {
		if err := l.Authorize(ctx, requester); err != nil {
			return err
		}
	}

	if err := checkMovement(c.Holder, ""); err != nil {
		return err
	}

	if err := l.store.Revoke(ctx, credID, now); err != nil {
		return err
	}

	l.logger.Info("credential revoked",
		"holder", c.Holder,
		"credential_id", credID,
		"requester", requester,
	)
	l.plugins.EmitCredentialRevoked(ctx, c.Holder, credID)

	return nil
}

// Transfer always fails. Credentials are bound to the holder they were
// issued to, and no caller, administrators included, can move one.
func (l *Ledger) Transfer(_ context.Context, credID uint64, from, to, caller string) error {
	l.logger.Warn("credential transfer rejected",
		"credential_id", credID,
		"from", from,
		"to", to,
		"caller", caller,
	)
	return ErrTransferNotAllowed
}

// checkMovement guards every change of a credential's holder. Issuance
// (absent to holder) and revocation (holder to absent) pass; a move between
// two holders never does.
func checkMovement(from, to string) error {
	switch {
	case from != "" && to != "":
		return ErrTransferNotAllowed
	case from == "" && to == "":
		return fmt.Errorf("%w: credential movement without a holder", ErrInvalidInput)
	}
	return nil
}

func (l *Ledger) checkNotPaused(ctx context.Context) error {
	paused, err := l.gate.IsPaused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return ErrPaused
	}
	return nil
}

func (l *Ledger) refund(ctx context.Context, receipt *Receipt, cause error) {
	if err := l.fees.Refund(ctx, receipt); err != nil {
		l.logger.Error("fee refund failed",
			"receipt_id", receipt.ID.String(),
			"payer", receipt.Payer,
			"cause", cause,
			"error", err,
		)
		return
	}
	l.logger.Warn("fee refunded after failed write",
		"receipt_id", receipt.ID.String(),
		"payer", receipt.Payer,
		"error", cause,
	)
}

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

// Credential returns a credential by identifier, revoked ones included.
func (l *Ledger) Credential(ctx context.Context, credID uint64) (*credential.Credential, error) {
	l.logger.Debug("credential lookup", "credential_id", credID)
	return l.store.Get(ctx, credID)
}

// CredentialOf returns the holder's current credential, expired or not.
func (l *Ledger) CredentialOf(ctx context.Context, holder string) (*credential.Credential, error) {
	l.logger.Debug("credential lookup", "holder", holder)
	return l.store.GetByHolder(ctx, holder)
}

// ExpiresAt returns the holder's current expiry.
func (l *Ledger) ExpiresAt(ctx context.Context, holder string) (time.Time, error) {
	c, err := l.store.GetByHolder(ctx, holder)
	if err != nil {
		return time.Time{}, err
	}
	return c.ExpiresAt, nil
}

// History returns every credential ever issued to the holder, oldest first.
func (l *Ledger) History(ctx context.Context, holder string) ([]*credential.Credential, error) {
	return l.store.List(ctx, credential.ListOpts{Holder: holder, IncludeRevoked: true})
}

// Plan returns the current membership terms.
func (l *Ledger) Plan(ctx context.Context) (*plan.Plan, error) {
	return l.store.GetPlan(ctx)
}

// Now returns the ledger's current time.
func (l *Ledger) Now() time.Time {
	return l.clock()
}

// ──────────────────────────────────────────────────
// Administration
// ──────────────────────────────────────────────────

// Authorize fails with ErrUnauthorized unless caller is an administrator.
func (l *Ledger) Authorize(ctx context.Context, caller string) error {
	if l.gate == nil {
		return ErrNotStarted
	}
	if caller == "" {
		return ErrUnauthorized
	}
	admin, err := l.gate.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !admin {
		return ErrUnauthorized
	}
	return nil
}

// SetPrice changes the membership price.
func (l *Ledger) SetPrice(ctx context.Context, caller string, price types.Money) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ready(); err != nil {
		return err
	}
	if err := l.Authorize(ctx, caller); err != nil {
		return err
	}

	p, err := l.store.GetPlan(ctx)
	if err != nil {
		return err
	}
	old := p.Price
	p.Price = price
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	p.Touch(l.clock())

	if err := l.store.SavePlan(ctx, p); err != nil {
		return err
	}

	l.logger.Info("membership price changed", "old", old.String(), "new", price.String(), "caller", caller)
	l.plugins.EmitPriceChanged(ctx, old, price)
	return nil
}

// SetDuration changes how long an issuance or renewal lasts.
func (l *Ledger) SetDuration(ctx context.Context, caller string, d time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ready(); err != nil {
		return err
	}
	if err := l.Authorize(ctx, caller); err != nil {
		return err
	}

	p, err := l.store.GetPlan(ctx)
	if err != nil {
		return err
	}
	old := p.Duration
	p.Duration = d
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	p.Touch(l.clock())

	if err := l.store.SavePlan(ctx, p); err != nil {
		return err
	}

	l.logger.Info("membership duration changed", "old", old, "new", d, "caller", caller)
	l.plugins.EmitDurationChanged(ctx, old, d)
	return nil
}

// Pause suspends Issue and Renew.
func (l *Ledger) Pause(ctx context.Context, caller string) error {
	return l.setPaused(ctx, caller, true)
}

// Unpause resumes Issue and Renew.
func (l *Ledger) Unpause(ctx context.Context, caller string) error {
	return l.setPaused(ctx, caller, false)
}

func (l *Ledger) setPaused(ctx context.Context, caller string, paused bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ready(); err != nil {
		return err
	}
	if err := l.Authorize(ctx, caller); err != nil {
		return err
	}
	if err := l.gate.SetPaused(ctx, paused); err != nil {
		return err
	}

	l.logger.Info("membership pause changed", "paused", paused, "caller", caller)
	l.plugins.EmitPauseChanged(ctx, paused)
	return nil
}

// Paused reports whether Issue and Renew are suspended.
func (l *Ledger) Paused(ctx context.Context) (bool, error) {
	if l.gate == nil {
		return false, ErrNotStarted
	}
	return l.gate.IsPaused(ctx)
}

// Withdraw moves every collected fee to the destination.
func (l *Ledger) Withdraw(ctx context.Context, caller, to string) (*Withdrawal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ready(); err != nil {
		return nil, err
	}
	if err := l.Authorize(ctx, caller); err != nil {
		return nil, err
	}
	if to == "" {
		return nil, fmt.Errorf("%w: withdrawal destination is required", ErrInvalidInput)
	}

	w, err := l.fees.Withdraw(ctx, to)
	if err != nil {
		return nil, err
	}

	for _, amount := range w.Amounts {
		l.logger.Info("funds withdrawn", "to", to, "amount", amount.String(), "caller", caller)
		l.plugins.EmitFundsWithdrawn(ctx, to, amount)
	}
	return w, nil
}

// Balance returns the collected, not yet withdrawn fees.
func (l *Ledger) Balance(ctx context.Context) ([]types.Money, error) {
	if l.fees == nil {
		return nil, ErrNotStarted
	}
	return l.fees.Balance(ctx)
}
