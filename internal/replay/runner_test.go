package replay

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ammScope/internal/model"
)

const (
	provider = "0x00000000000000000000000000000000000000a1"
	arber    = "0x00000000000000000000000000000000000000a2"
	trader   = "0x00000000000000000000000000000000000000a3"
)

type memStorage struct {
	results   []model.OperationResult
	snapshots []model.PoolSnapshot
	windows   []model.PoolWindowMetrics
}

func (m *memStorage) PutResults(results []model.OperationResult) error {
	m.results = append(m.results, results...)
	return nil
}

func (m *memStorage) PutSnapshots(snapshots []model.PoolSnapshot) error {
	m.snapshots = append(m.snapshots, snapshots...)
	return nil
}

func (m *memStorage) PutWindows(windows []model.PoolWindowMetrics) error {
	m.windows = append(m.windows, windows...)
	return nil
}

type memState struct {
	seq   uint64
	ok    bool
	saves []uint64
}

func (m *memState) Load(context.Context) (uint64, bool, error) { return m.seq, m.ok, nil }

func (m *memState) Save(_ context.Context, seq uint64) error {
	m.seq, m.ok = seq, true
	m.saves = append(m.saves, seq)
	return nil
}

func testVenue(t *testing.T) *Venue {
	t.Helper()
	v, err := NewVenue(VenueConfig{
		TokenA:   common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		TokenB:   common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		Pools:    []PoolSpec{{Name: "x", FeeBps: 30}, {Name: "y", FeeBps: 30}, {Name: "z", FeeBps: 30}},
		ArbPoolX: "x",
		ArbPoolY: "y",
	}, nil)
	require.NoError(t, err)
	return v
}

func scenarioOps() []model.OperationRequest {
	return []model.OperationRequest{
		{Op: model.OpMint, Account: provider, Token: "a", Amount: "3000000"},
		{Op: model.OpMint, Account: provider, Token: "b", Amount: "5800000"},
		{Op: model.OpAddLiquidity, Pool: "x", Account: provider, AmountA: "1000000", AmountB: "2000000"},
		{Op: model.OpAddLiquidity, Pool: "y", Account: provider, AmountA: "1000000", AmountB: "1800000"},
		{Op: model.OpAddLiquidity, Pool: "z", Account: provider, AmountA: "1000000", AmountB: "2000000"},
		{Op: model.OpMint, Account: arber, Token: "a", Amount: "10000"},
		{Op: model.OpArbitrage, Account: arber},
		{Op: model.OpSwap, Pool: "missing", Account: trader, TokenIn: "a", Amount: "1"},
		{Op: model.OpMint, Account: trader, Token: "a", Amount: "10000"},
		{Op: model.OpSwap, Pool: "z", Account: trader, TokenIn: "a", Amount: "10000"},
	}
}

func TestRunnerReplaysOperations(t *testing.T) {
	sink := &memStorage{}
	state := &memState{}
	ops := scenarioOps()
	runner := NewRunner(RunConfig{RunName: "test", BatchSize: 4}, testVenue(t), sink, nil, state, nil)

	require.NoError(t, runner.Run(context.Background(), ops))

	require.Len(t, sink.results, len(ops))
	for i, res := range sink.results {
		assert.Equal(t, uint64(i+1), res.Seq)
		assert.NotEmpty(t, res.AppliedAt)
	}

	arb := sink.results[6]
	require.True(t, arb.OK, arb.Error)
	require.NotNil(t, arb.Executed)
	assert.True(t, *arb.Executed)
	assert.Equal(t, "10000", arb.AmountIn)
	assert.Equal(t, "816", arb.Profit)

	failed := sink.results[7]
	assert.False(t, failed.OK)
	assert.Contains(t, failed.Error, "unknown pool")

	swap := sink.results[9]
	require.True(t, swap.OK, swap.Error)
	assert.Equal(t, "19743", swap.AmountOut)
	require.NotNil(t, swap.Metrics)
	assert.Equal(t, "-1.285000000000000000", swap.Metrics.Slippage)
	assert.Equal(t, "0.010000000000000000", swap.Metrics.TradeLotFraction)

	assert.Equal(t, []uint64{4, 8, 10}, state.saves)
	// three pools per batch
	assert.Len(t, sink.snapshots, 9)
	require.NotEmpty(t, sink.windows)
	last := sink.windows[len(sink.windows)-1]
	assert.Equal(t, "z", last.Pool)
	assert.Equal(t, uint64(1), last.SwapCount)
	assert.Equal(t, "10000", last.VolumeA)
	assert.Equal(t, "30", last.FeeA)
}

func TestRunnerResumesFromState(t *testing.T) {
	sink := &memStorage{}
	state := &memState{seq: 6, ok: true}
	ops := scenarioOps()
	runner := NewRunner(RunConfig{BatchSize: 4}, testVenue(t), sink, nil, state, nil)

	require.NoError(t, runner.Run(context.Background(), ops))

	require.Len(t, sink.results, 4)
	assert.Equal(t, uint64(7), sink.results[0].Seq)
	// earlier operations were re-applied, so the arbitrage sees seeded pools
	assert.Equal(t, "816", sink.results[0].Profit)
	assert.Equal(t, []uint64{8, 10}, state.saves)
}

func TestRunnerFullyAppliedWritesNothing(t *testing.T) {
	sink := &memStorage{}
	state := &memState{seq: 10, ok: true}
	runner := NewRunner(RunConfig{BatchSize: 3}, testVenue(t), sink, nil, state, nil)

	require.NoError(t, runner.Run(context.Background(), scenarioOps()))
	assert.Empty(t, sink.results)
	assert.Empty(t, sink.snapshots)
	assert.Empty(t, state.saves)
}

func TestRunnerValidation(t *testing.T) {
	ctx := context.Background()
	require.Error(t, NewRunner(RunConfig{BatchSize: 1}, nil, &memStorage{}, nil, nil, nil).Run(ctx, scenarioOps()))
	require.Error(t, NewRunner(RunConfig{BatchSize: 1}, testVenue(t), nil, nil, nil, nil).Run(ctx, scenarioOps()))
	require.Error(t, NewRunner(RunConfig{}, testVenue(t), &memStorage{}, nil, nil, nil).Run(ctx, scenarioOps()))
	require.NoError(t, NewRunner(RunConfig{BatchSize: 1}, testVenue(t), &memStorage{}, nil, nil, nil).Run(ctx, nil))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, NewRunner(RunConfig{BatchSize: 1}, testVenue(t), &memStorage{}, nil, nil, nil).Run(cancelled, scenarioOps()), context.Canceled)
}

func TestReadOperations(t *testing.T) {
	input := strings.Join([]string{
		`# seed`,
		`{"op":"mint","account":"` + provider + `","token":"a","amount":"10"}`,
		``,
		`{"op":"swap","pool":"x","account":"` + provider + `","token_in":"a","amount":"0x0a"}`,
	}, "\n")
	ops, err := ReadOperations(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, model.OpSwap, ops[1].Op)
	assert.Equal(t, "0x0a", ops[1].Amount)

	_, err = ReadOperations(strings.NewReader(`{"op":`))
	require.Error(t, err)
	_, err = ReadOperations(strings.NewReader(`{"pool":"x"}`))
	require.ErrorContains(t, err, "missing op")
}
