package amm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestFeeTrackerRecordSwap(t *testing.T) {
	f := NewFeeTracker(tokenA, tokenB)
	f.RecordSwap(tokenA, u(10_000), u(30))
	f.RecordSwap(tokenB, u(4_000), u(12))
	f.RecordSwap(tokenA, u(1), u(0))
	f.RecordSwap(common.HexToAddress("0xcc"), u(99), u(99))

	volA, volB := f.SwapVolumes()
	feeA, feeB := f.TotalFees()
	require.Equal(t, uint64(10_001), volA.Uint64())
	require.Equal(t, uint64(4_000), volB.Uint64())
	require.Equal(t, uint64(30), feeA.Uint64())
	require.Equal(t, uint64(12), feeB.Uint64())

	// returned values are copies
	volA.SetUint64(0)
	again, _ := f.SwapVolumes()
	require.Equal(t, uint64(10_001), again.Uint64())
}

func TestFeeTrackerSaturates(t *testing.T) {
	f := NewFeeTracker(tokenA, tokenB)
	max := new(uint256.Int).SetAllOne()
	f.RecordSwap(tokenA, max, max)
	f.RecordSwap(tokenA, u(5), u(5))

	volA, _ := f.SwapVolumes()
	feeA, _ := f.TotalFees()
	require.True(t, volA.Eq(max))
	require.True(t, feeA.Eq(max))
}

func TestFeeTrackerCloneIsIndependent(t *testing.T) {
	f := NewFeeTracker(tokenA, tokenB)
	f.RecordSwap(tokenA, u(100), u(1))
	c := f.clone()
	c.RecordSwap(tokenA, u(100), u(1))

	volA, _ := f.SwapVolumes()
	cloned, _ := c.SwapVolumes()
	require.Equal(t, uint64(100), volA.Uint64())
	require.Equal(t, uint64(200), cloned.Uint64())
}
