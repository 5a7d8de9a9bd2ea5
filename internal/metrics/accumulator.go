package metrics

import "ammScope/internal/model"

// Accumulator holds aggregate values for one pool across a replay batch.
type Accumulator struct {
	pool        string
	start       model.PoolSnapshot
	firstSeq    uint64
	lastSeq     uint64
	seen        bool
	swapCount   uint64
	failedCount uint64
}

// NewAccumulator starts a window at the pool's snapshot before the batch.
func NewAccumulator(start model.PoolSnapshot) *Accumulator {
	return &Accumulator{pool: start.Name, start: start}
}

// Observe counts one operation result that touched the pool.
func (a *Accumulator) Observe(result model.OperationResult) {
	if !a.seen || result.Seq < a.firstSeq {
		a.firstSeq = result.Seq
	}
	if result.Seq > a.lastSeq {
		a.lastSeq = result.Seq
	}
	a.seen = true

	if !result.OK {
		a.failedCount++
		return
	}
	if result.Op == model.OpSwap {
		a.swapCount++
	}
}

// Empty reports whether no operation touched the pool.
func (a *Accumulator) Empty() bool {
	return !a.seen
}

// Finish closes the window at end. Volumes and fees are the growth of the
// pool's cumulative counters over the window.
func (a *Accumulator) Finish(end model.PoolSnapshot) model.PoolWindowMetrics {
	volumeA := sub(end.VolumeA, a.start.VolumeA)
	volumeB := sub(end.VolumeB, a.start.VolumeB)
	feeA := sub(end.FeeA, a.start.FeeA)
	feeB := sub(end.FeeB, a.start.FeeB)
	snap := ForSnapshot(end)

	return model.PoolWindowMetrics{
		Pool:        a.pool,
		FirstSeq:    a.firstSeq,
		LastSeq:     a.lastSeq,
		SwapCount:   a.swapCount,
		FailedCount: a.failedCount,
		VolumeA:     volumeA.String(),
		VolumeB:     volumeB.String(),
		FeeA:        feeA.String(),
		FeeB:        feeB.String(),
		TVL:         snap.TVL,
		SpotPrice:   snap.SpotPrice,
		FeeRateA:    computeRate(feeA, mustBig(end.ReserveA)),
		FeeRateB:    computeRate(feeB, mustBig(end.ReserveB)),
	}
}
