package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/devlongs/solesub"
	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/plan"
	solesubstore "github.com/devlongs/solesub/store"
)

// compile-time interface check
var _ solesubstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("solesub/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("solesub/sqlite: %w: %w", solesub.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Credential Store ====================

func (s *Store) Create(ctx context.Context, c *credential.Credential) error {
	m := toCredentialModel(c)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		if dup := duplicateError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("solesub/sqlite: create credential: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, credID uint64) (*credential.Credential, error) {
	m := new(credentialModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", int64(credID)). //nolint:gosec // ids fit in int64
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, solesub.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("solesub/sqlite: get credential: %w", err)
	}
	return fromCredentialModel(m), nil
}

func (s *Store) GetByHolder(ctx context.Context, holder string) (*credential.Credential, error) {
	m := new(credentialModel)
	err := s.sdb.NewSelect(m).
		Where("holder = ?", holder).
		Where("revoked_at IS NULL").
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, solesub.ErrNoCredential
		}
		return nil, fmt.Errorf("solesub/sqlite: get credential by holder: %w", err)
	}
	return fromCredentialModel(m), nil
}

func (s *Store) List(ctx context.Context, opts credential.ListOpts) ([]*credential.Credential, error) {
	var models []credentialModel
	q := s.sdb.NewSelect(&models)

	if opts.Holder != "" {
		q = q.Where("holder = ?", opts.Holder)
	}
	if !opts.IncludeRevoked {
		q = q.Where("revoked_at IS NULL")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("solesub/sqlite: list credentials: %w", err)
	}

	result := make([]*credential.Credential, len(models))
	for i := range models {
		result[i] = fromCredentialModel(&models[i])
	}
	return result, nil
}

func (s *Store) Extend(ctx context.Context, credID uint64, expiresAt, renewedAt time.Time) error {
	res, err := s.sdb.NewUpdate((*credentialModel)(nil)).
		Set("expires_at = ?", expiresAt.UTC()).
		Set("renewed_at = ?", renewedAt.UTC()).
		Set("renewals = renewals + 1").
		Where("id = ?", int64(credID)). //nolint:gosec // ids fit in int64
		Where("revoked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("solesub/sqlite: extend credential: %w", err)
	}
	return affectedOne(res)
}

func (s *Store) Revoke(ctx context.Context, credID uint64, revokedAt time.Time) error {
	res, err := s.sdb.NewUpdate((*credentialModel)(nil)).
		Set("revoked_at = ?", revokedAt.UTC()).
		Set("expires_at = ?", time.Time{}).
		Where("id = ?", int64(credID)). //nolint:gosec // ids fit in int64
		Where("revoked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("solesub/sqlite: revoke credential: %w", err)
	}
	return affectedOne(res)
}

func (s *Store) LastID(ctx context.Context) (uint64, error) {
	var last int64
	err := s.sdb.NewRaw(`SELECT COALESCE(MAX(id), 0) FROM solesub_credentials`).Scan(ctx, &last)
	if err != nil {
		return 0, fmt.Errorf("solesub/sqlite: last credential id: %w", err)
	}
	return uint64(last), nil //nolint:gosec // MAX over positive ids
}

// ==================== Plan Store ====================

func (s *Store) GetPlan(ctx context.Context) (*plan.Plan, error) {
	m := new(planModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", planRowID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, solesub.ErrPlanNotFound
		}
		return nil, fmt.Errorf("solesub/sqlite: get plan: %w", err)
	}
	return fromPlanModel(m), nil
}

func (s *Store) SavePlan(ctx context.Context, p *plan.Plan) error {
	m := toPlanModel(p)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("price_amount = EXCLUDED.price_amount").
		Set("currency = EXCLUDED.currency").
		Set("duration_ns = EXCLUDED.duration_ns").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("solesub/sqlite: save plan: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// rowsAffecter is the part of an exec result the updates inspect.
type rowsAffecter interface {
	RowsAffected() (int64, error)
}

// affectedOne maps an update that matched no live credential to
// ErrCredentialNotFound.
func affectedOne(res rowsAffecter) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return solesub.ErrCredentialNotFound
	}
	return nil
}

// duplicateError translates a unique constraint violation. The partial
// holder index reports the holder column, the primary key reports id.
func duplicateError(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	if strings.Contains(msg, "holder") {
		return solesub.ErrAlreadyEnrolled
	}
	return solesub.ErrInvalidIdentifier
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
