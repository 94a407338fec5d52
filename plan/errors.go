package plan

import "errors"

var (
	ErrNegativePrice       = errors.New("plan: price must not be negative")
	ErrMissingCurrency     = errors.New("plan: price currency is required")
	ErrNonPositiveDuration = errors.New("plan: duration must be positive")
)
