package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGasPricePolicyIncreased(t *testing.T) {
	assert.Equal(t, 100, GasPricePolicyNormal.Increased(100))
	assert.Equal(t, 150, GasPricePolicyPriority.Increased(100))
	// integer truncation, not rounding: 101 * 150 / 100 = 151.5 -> 151
	assert.Equal(t, 151, GasPricePolicyPriority.Increased(101))
	assert.Equal(t, 1, GasPricePolicyPriority.Increased(1))
	assert.Equal(t, 0, GasPricePolicyPriority.Increased(0))
}

func TestApprovePolicyAmount(t *testing.T) {
	specified := ApprovePolicySpecified(decimal.RequireFromString("50"))
	assert.False(t, specified.IsUnlimited())
	assert.True(t, specified.Amount().Equal(decimal.RequireFromString("50")))

	unlimited := ApprovePolicyUnlimited()
	assert.True(t, unlimited.IsUnlimited())
	// 2^256 - 1, the conventional max ERC20 allowance
	assert.True(t, unlimited.Amount().Equal(
		decimal.NewFromInt(2).Pow(decimal.NewFromInt(256)).Sub(decimal.NewFromInt(1)),
	))
	assert.True(t, unlimited.Amount().GreaterThan(specified.Amount()))
}
