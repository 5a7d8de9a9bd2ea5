package amm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// FeeTracker accumulates swap volume and retained fees per pool token.
// It is guarded by the owning Pool's lock.
type FeeTracker struct {
	tokenA  common.Address
	tokenB  common.Address
	volumeA *uint256.Int
	volumeB *uint256.Int
	feeA    *uint256.Int
	feeB    *uint256.Int
}

func NewFeeTracker(tokenA, tokenB common.Address) *FeeTracker {
	return &FeeTracker{
		tokenA:  tokenA,
		tokenB:  tokenB,
		volumeA: uint256.NewInt(0),
		volumeB: uint256.NewInt(0),
		feeA:    uint256.NewInt(0),
		feeB:    uint256.NewInt(0),
	}
}

// RecordSwap adds the gross input and the retained fee of one swap.
func (f *FeeTracker) RecordSwap(token common.Address, grossAmountIn, feeRetained *uint256.Int) {
	switch token {
	case f.tokenA:
		saturatingAdd(f.volumeA, grossAmountIn)
		saturatingAdd(f.feeA, feeRetained)
	case f.tokenB:
		saturatingAdd(f.volumeB, grossAmountIn)
		saturatingAdd(f.feeB, feeRetained)
	}
}

// SwapVolumes returns cumulative gross input per token.
func (f *FeeTracker) SwapVolumes() (*uint256.Int, *uint256.Int) {
	return f.volumeA.Clone(), f.volumeB.Clone()
}

// TotalFees returns cumulative retained fees per token.
func (f *FeeTracker) TotalFees() (*uint256.Int, *uint256.Int) {
	return f.feeA.Clone(), f.feeB.Clone()
}

func (f *FeeTracker) clone() *FeeTracker {
	return &FeeTracker{
		tokenA:  f.tokenA,
		tokenB:  f.tokenB,
		volumeA: f.volumeA.Clone(),
		volumeB: f.volumeB.Clone(),
		feeA:    f.feeA.Clone(),
		feeB:    f.feeB.Clone(),
	}
}

// counters never wrap
func saturatingAdd(target, value *uint256.Int) {
	if value == nil {
		return
	}
	if _, overflow := target.AddOverflow(target, value); overflow {
		target.SetAllOne()
	}
}
