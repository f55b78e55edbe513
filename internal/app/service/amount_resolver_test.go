package service

import (
	"testing"

	"blazing_api/internal/domain/entity"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maxUint256() *uint256.Int {
	return new(uint256.Int).SetAllOne()
}

func TestResolveAmount(t *testing.T) {
	tests := []struct {
		name         string
		isPercentage bool
		balance      *uint256.Int
		requested    *uint256.Int
		want         *uint256.Int
	}{
		{"absolute ignores balance", false, uint256.NewInt(1), uint256.NewInt(500), uint256.NewInt(500)},
		{"half of 200", true, uint256.NewInt(200), uint256.NewInt(50), uint256.NewInt(100)},
		{"floor rounding", true, uint256.NewInt(1), uint256.NewInt(50), uint256.NewInt(0)},
		{"full balance", true, uint256.NewInt(999), uint256.NewInt(100), uint256.NewInt(999)},
		{"above one hundred percent", true, uint256.NewInt(10), uint256.NewInt(250), uint256.NewInt(25)},
		{"zero balance", true, uint256.NewInt(0), uint256.NewInt(100), uint256.NewInt(0)},
		{"max absolute", false, uint256.NewInt(0), maxUint256(), maxUint256()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAmount(tt.isPercentage, tt.balance, tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Dec(), got.Dec())
		})
	}
}

func TestResolveAmountDoesNotAlias(t *testing.T) {
	requested := uint256.NewInt(7)
	got, err := ResolveAmount(false, uint256.NewInt(0), requested)
	require.NoError(t, err)
	got.SetUint64(8)
	assert.Equal(t, uint64(7), requested.Uint64())
}

func TestResolveAmountOverflow(t *testing.T) {
	_, err := ResolveAmount(true, maxUint256(), maxUint256())
	require.ErrorIs(t, err, entity.ErrArithmeticOverflow)

	_, err = ResolveAmount(true, maxUint256(), uint256.NewInt(2))
	require.ErrorIs(t, err, entity.ErrArithmeticOverflow)
}

func TestSumAmounts(t *testing.T) {
	total, err := SumAmounts([]*uint256.Int{uint256.NewInt(1), uint256.NewInt(2), uint256.NewInt(3)})
	require.NoError(t, err)
	assert.Equal(t, uint64(6), total.Uint64())

	total, err = SumAmounts(nil)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	_, err = SumAmounts([]*uint256.Int{maxUint256(), uint256.NewInt(1)})
	require.ErrorIs(t, err, entity.ErrArithmeticOverflow)
}
