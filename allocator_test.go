package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvestableCapital(t *testing.T) {
	assert.InDelta(t, 950.0, investableCapital(1000, 0, 0.95), 1e-9)
	assert.InDelta(t, 712.5, investableCapital(1000, 250, 0.95), 1e-9)

	// Not clamped: negative equity flows through and degrades to zero-size
	// orders at quantity time.
	assert.Less(t, investableCapital(100, 500, 0.95), 0.0)
}

func TestAllocatePartitionsEvenly(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 10} {
		per, err := allocate(10000, n)
		require.NoError(t, err)
		assert.InDelta(t, 10000.0, per*float64(n), 1e-6, "n=%d", n)
	}
}

func TestAllocateZeroTickersFailsFast(t *testing.T) {
	_, err := allocate(10000, 0)
	require.Error(t, err)
	_, err = allocate(10000, -1)
	require.Error(t, err)
}

func TestShareQuantityFloors(t *testing.T) {
	assert.Equal(t, int64(20), shareQuantity(5000, 250))
	assert.Equal(t, int64(55), shareQuantity(5000, 90)) // 55.55… floors
	assert.Equal(t, int64(0), shareQuantity(99, 100))
}

func TestShareQuantityUnusableInputs(t *testing.T) {
	assert.Equal(t, int64(0), shareQuantity(5000, 0))
	assert.Equal(t, int64(0), shareQuantity(5000, -1))
	assert.Equal(t, int64(0), shareQuantity(0, 250))
	assert.Equal(t, int64(0), shareQuantity(-5000, 250))
}
