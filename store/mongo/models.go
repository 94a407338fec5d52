package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/plan"
	"github.com/devlongs/solesub/types"
)

// planDocID is the _id of the single plan document.
const planDocID = "current"

// ==================== Credential models ====================

type credentialModel struct {
	grove.BaseModel `grove:"table:solesub_credentials"`

	ID        int64      `grove:"id,pk"      bson:"_id"`
	Holder    string     `grove:"holder"     bson:"holder"`
	IssuedAt  time.Time  `grove:"issued_at"  bson:"issued_at"`
	ExpiresAt time.Time  `grove:"expires_at" bson:"expires_at"`
	RenewedAt *time.Time `grove:"renewed_at" bson:"renewed_at,omitempty"`
	RevokedAt *time.Time `grove:"revoked_at" bson:"revoked_at,omitempty"`
	Revoked   bool       `grove:"revoked"    bson:"revoked"`
	Renewals  int        `grove:"renewals"   bson:"renewals"`
}

func toCredentialModel(c *credential.Credential) *credentialModel {
	return &credentialModel{
		ID:        int64(c.ID), //nolint:gosec // ids are issued sequentially from 1
		Holder:    c.Holder,
		IssuedAt:  c.IssuedAt.UTC(),
		ExpiresAt: c.ExpiresAt.UTC(),
		RenewedAt: utcPtr(c.RenewedAt),
		RevokedAt: utcPtr(c.RevokedAt),
		Revoked:   c.Revoked(),
		Renewals:  c.Renewals,
	}
}

func fromCredentialModel(m *credentialModel) *credential.Credential {
	return &credential.Credential{
		ID:        uint64(m.ID), //nolint:gosec // never negative
		Holder:    m.Holder,
		IssuedAt:  m.IssuedAt.UTC(),
		ExpiresAt: m.ExpiresAt.UTC(),
		RenewedAt: utcPtr(m.RenewedAt),
		RevokedAt: utcPtr(m.RevokedAt),
		Renewals:  m.Renewals,
	}
}

// ==================== Plan models ====================

type planModel struct {
	grove.BaseModel `grove:"table:solesub_plan"`

	ID        string     `grove:"id,pk"      bson:"_id"`
	Price     moneyModel `grove:"price"      bson:"price"`
	Duration  int64      `grove:"duration"   bson:"duration_ns"`
	CreatedAt time.Time  `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `grove:"updated_at" bson:"updated_at"`
}

type moneyModel struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func toPlanModel(p *plan.Plan) *planModel {
	return &planModel{
		ID:        planDocID,
		Price:     moneyModel{Amount: p.Price.Amount, Currency: p.Price.Currency},
		Duration:  int64(p.Duration),
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func fromPlanModel(m *planModel) *plan.Plan {
	return &plan.Plan{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		Price:    types.New(m.Price.Amount, m.Price.Currency),
		Duration: time.Duration(m.Duration),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
