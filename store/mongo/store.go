package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/devlongs/solesub"
	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/plan"
	solesubstore "github.com/devlongs/solesub/store"
)

// Collection name constants.
const (
	colCredentials = "solesub_credentials"
	colPlan        = "solesub_plan"
)

// compile-time interface check
var _ solesubstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
//
// Documents carry a boolean "revoked" flag next to revoked_at so the holder
// index can be a partial unique index; partial filters cannot express
// "field is missing".
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all solesub collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("solesub/mongo: migrate %s indexes: %w: %w", col, solesub.ErrMigrationFailed, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "holder") {
				return solesub.ErrAlreadyEnrolled
			}
			return solesub.ErrInvalidIdentifier
		}
		return fmt.Errorf("solesub/mongo: create credential: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, credID uint64) (*credential.Credential, error) {
	var m credentialModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(credID)}). //nolint:gosec // ids fit in int64
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, solesub.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("solesub/mongo: get credential: %w", err)
	}
	return fromCredentialModel(&m), nil
}

func (s *Store) GetByHolder(ctx context.Context, holder string) (*credential.Credential, error) {
	var m credentialModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"holder": holder, "revoked": false}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, solesub.ErrNoCredential
		}
		return nil, fmt.Errorf("solesub/mongo: get credential by holder: %w", err)
	}
	return fromCredentialModel(&m), nil
}

func (s *Store) List(ctx context.Context, opts credential.ListOpts) ([]*credential.Credential, error) {
	var models []credentialModel

	filter := bson.M{}
	if opts.Holder != "" {
		filter["holder"] = opts.Holder
	}
	if !opts.IncludeRevoked {
		filter["revoked"] = false
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("solesub/mongo: list credentials: %w", err)
	}

	result := make([]*credential.Credential, len(models))
	for i := range models {
		result[i] = fromCredentialModel(&models[i])
	}
	return result, nil
}

func (s *Store) Extend(ctx context.Context, credID uint64, expiresAt, renewedAt time.Time) error {
	res, err := s.mdb.Collection(colCredentials).UpdateOne(ctx,
		bson.M{"_id": int64(credID), "revoked": false}, //nolint:gosec // ids fit in int64
		bson.M{
			"$set": bson.M{"expires_at": expiresAt.UTC(), "renewed_at": renewedAt.UTC()},
			"$inc": bson.M{"renewals": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("solesub/mongo: extend credential: %w", err)
	}
	if res.MatchedCount == 0 {
		return solesub.ErrCredentialNotFound
	}
	return nil
}

func (s *Store) Revoke(ctx context.Context, credID uint64, revokedAt time.Time) error {
	res, err := s.mdb.NewUpdate((*credentialModel)(nil)).
		Filter(bson.M{"_id": int64(credID), "revoked": false}). //nolint:gosec // ids fit in int64
		Set("revoked", true).
		Set("revoked_at", revokedAt.UTC()).
		Set("expires_at", time.Time{}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("solesub/mongo: revoke credential: %w", err)
	}
	if res.MatchedCount() == 0 {
		return solesub.ErrCredentialNotFound
	}
	return nil
}

func (s *Store) LastID(ctx context.Context) (uint64, error) {
	var models []credentialModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("solesub/mongo: last credential id: %w", err)
	}
	if len(models) == 0 {
		return 0, nil
	}
	return uint64(models[0].ID), nil //nolint:gosec // never negative
}

// ==================== Plan Store ====================

func (s *Store) GetPlan(ctx context.Context) (*plan.Plan, error) {
	var m planModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": planDocID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, solesub.ErrPlanNotFound
		}
		return nil, fmt.Errorf("solesub/mongo: get plan: %w", err)
	}
	return fromPlanModel(&m), nil
}

func (s *Store) SavePlan(ctx context.Context, p *plan.Plan) error {
	m := toPlanModel(p)
	_, err := s.mdb.Collection(colPlan).ReplaceOne(ctx,
		bson.M{"_id": planDocID},
		bson.M{
			"_id":         m.ID,
			"price":       m.Price,
			"duration_ns": m.Duration,
			"created_at":  m.CreatedAt,
			"updated_at":  m.UpdatedAt,
		},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("solesub/mongo: save plan: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all solesub collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colCredentials: {
			{
				Keys: bson.D{{Key: "holder", Value: 1}},
				Options: options.Index().
					SetName("holder_active").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"revoked": false}),
			},
			{Keys: bson.D{{Key: "holder", Value: 1}, {Key: "_id", Value: 1}}},
		},
	}
}
