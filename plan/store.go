package plan

import "context"

// Store persists the single active plan.
type Store interface {
	GetPlan(ctx context.Context) (*Plan, error)
	SavePlan(ctx context.Context, p *Plan) error
}
