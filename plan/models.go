package plan

import (
	"time"

	"github.com/devlongs/solesub/types"
)

// Plan holds the administrator-controlled membership terms: what a credential
// costs and how long each issuance or renewal lasts.
type Plan struct {
	types.Entity
	Price    types.Money   `json:"price"`
	Duration time.Duration `json:"duration"`
}

// Validate reports whether the terms can be charged and applied.
func (p *Plan) Validate() error {
	switch {
	case p.Price.IsNegative():
		return ErrNegativePrice
	case p.Price.Currency == "":
		return ErrMissingCurrency
	case p.Duration <= 0:
		return ErrNonPositiveDuration
	}
	return nil
}
