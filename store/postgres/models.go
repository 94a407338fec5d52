package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/plan"
	"github.com/devlongs/solesub/types"
)

// planRowID is the primary key of the single plan row.
const planRowID = 1

type credentialModel struct {
	grove.BaseModel `grove:"table:solesub_credentials"`

	ID        int64      `grove:"id,pk"`
	Holder    string     `grove:"holder"`
	IssuedAt  time.Time  `grove:"issued_at"`
	ExpiresAt time.Time  `grove:"expires_at"`
	RenewedAt *time.Time `grove:"renewed_at"`
	RevokedAt *time.Time `grove:"revoked_at"`
	Renewals  int        `grove:"renewals"`
}

func toCredentialModel(c *credential.Credential) *credentialModel {
	return &credentialModel{
		ID:        int64(c.ID), //nolint:gosec // ids are issued sequentially from 1
		Holder:    c.Holder,
		IssuedAt:  c.IssuedAt.UTC(),
		ExpiresAt: c.ExpiresAt.UTC(),
		RenewedAt: utcPtr(c.RenewedAt),
		RevokedAt: utcPtr(c.RevokedAt),
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

type planModel struct {
	grove.BaseModel `grove:"table:solesub_plan"`

	ID          int       `grove:"id,pk"`
	PriceAmount int64     `grove:"price_amount"`
	Currency    string    `grove:"currency"`
	DurationNS  int64     `grove:"duration_ns"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toPlanModel(p *plan.Plan) *planModel {
	return &planModel{
		ID:          planRowID,
		PriceAmount: p.Price.Amount,
		Currency:    p.Price.Currency,
		DurationNS:  int64(p.Duration),
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func fromPlanModel(m *planModel) *plan.Plan {
	return &plan.Plan{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		Price:    types.New(m.PriceAmount, m.Currency),
		Duration: time.Duration(m.DurationNS),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
