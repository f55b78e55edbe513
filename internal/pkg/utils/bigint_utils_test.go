package utils

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   *uint256.Int
		decimals uint8
		want     string
	}{
		{"nil", nil, 18, "0"},
		{"zero", uint256.NewInt(0), 18, "0"},
		{"no decimals", uint256.NewInt(12345), 0, "12345"},
		{"whole", uint256.NewInt(3_000_000), 6, "3"},
		{"fraction", uint256.NewInt(1_234_500_000_000_000_000), 18, "1.2345"},
		{"small fraction", uint256.NewInt(5), 6, "0.000005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.amount, tt.decimals))
		})
	}
}

func TestBatch(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Batch([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1, 2, 3}}, Batch([]int{1, 2, 3}, 0))
	assert.Empty(t, Batch([]int{}, 3))
}
