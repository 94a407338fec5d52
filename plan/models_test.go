package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/devlongs/solesub/types"
)

func TestPlanValidate(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
		want error
	}{
		{"valid", Plan{Price: types.USD(100), Duration: time.Hour}, nil},
		{"free", Plan{Price: types.Zero("usd"), Duration: time.Hour}, nil},
		{"negative price", Plan{Price: types.USD(-1), Duration: time.Hour}, ErrNegativePrice},
		{"no currency", Plan{Price: types.Money{Amount: 1}, Duration: time.Hour}, ErrMissingCurrency},
		{"zero duration", Plan{Price: types.USD(100)}, ErrNonPositiveDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.plan.Validate(), tt.want)
		})
	}
}
