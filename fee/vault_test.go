package fee_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlongs/solesub"
	"github.com/devlongs/solesub/fee"
	"github.com/devlongs/solesub/id"
	"github.com/devlongs/solesub/types"
)

func TestVerify(t *testing.T) {
	v := fee.NewVault()

	require.NoError(t, v.Verify(types.USD(100), types.USD(100)))

	for _, provided := range []types.Money{types.USD(99), types.USD(101), types.EUR(100)} {
		err := v.Verify(types.USD(100), provided)
		require.ErrorIs(t, err, solesub.ErrInsufficientFee)

		var feeErr *solesub.InsufficientFeeError
		require.True(t, errors.As(err, &feeErr))
		assert.True(t, feeErr.Required.Equal(types.USD(100)))
		assert.True(t, feeErr.Provided.Equal(provided))
	}
}

func TestCollectRefundWithdraw(t *testing.T) {
	ctx := context.Background()
	v := fee.NewVault()

	r1, err := v.Collect(ctx, "alice", types.USD(100))
	require.NoError(t, err)
	assert.Equal(t, id.PrefixReceipt, r1.ID.Prefix())

	r2, err := v.Collect(ctx, "bob", types.USD(100))
	require.NoError(t, err)
	_, err = v.Collect(ctx, "carol", types.EUR(50))
	require.NoError(t, err)

	require.NoError(t, v.Refund(ctx, r2))
	assert.ErrorIs(t, v.Refund(ctx, r2), solesub.ErrInvalidInput)

	bal, err := v.Balance(ctx)
	require.NoError(t, err)
	require.Len(t, bal, 2)
	assert.True(t, bal[0].Equal(types.EUR(50)))
	assert.True(t, bal[1].Equal(types.USD(100)))

	w, err := v.Withdraw(ctx, "treasury")
	require.NoError(t, err)
	assert.Equal(t, id.PrefixWithdrawal, w.ID.Prefix())
	assert.Equal(t, "treasury", w.To)
	assert.Len(t, w.Amounts, 2)
	assert.Len(t, v.Withdrawals(), 1)

	_, err = v.Withdraw(ctx, "treasury")
	assert.ErrorIs(t, err, solesub.ErrNothingToWithdraw)

	bal, err = v.Balance(ctx)
	require.NoError(t, err)
	assert.Empty(t, bal)
}

func TestCollectRejectsNegative(t *testing.T) {
	_, err := fee.NewVault().Collect(context.Background(), "alice", types.USD(-1))
	assert.ErrorIs(t, err, solesub.ErrInvalidInput)
}

func TestBalanceMergesCurrencyCase(t *testing.T) {
	ctx := context.Background()
	v := fee.NewVault()

	_, err := v.Collect(ctx, "alice", types.Money{Amount: 100, Currency: "USD"})
	require.NoError(t, err)
	_, err = v.Collect(ctx, "bob", types.USD(150))
	require.NoError(t, err)

	bal, err := v.Balance(ctx)
	require.NoError(t, err)
	require.Len(t, bal, 1)
	assert.Equal(t, types.USD(250), bal[0])
}
