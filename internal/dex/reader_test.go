package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	poolAddr   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	lpAddr     = common.HexToAddress("0x1000000000000000000000000000000000000002")
	tokenAAddr = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tokenBAddr = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

// fakeCaller answers eth_call by contract and method selector.
type fakeCaller struct {
	mu        sync.Mutex
	responses map[common.Address]map[string][]byte
	failFirst int
	calls     int
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFirst {
		return nil, errors.New("node unavailable")
	}
	methods, ok := f.responses[*msg.To]
	if !ok {
		return nil, fmt.Errorf("no contract at %s", msg.To.Hex())
	}
	resp, ok := methods[string(msg.Data[:4])]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return resp, nil
}

func (f *fakeCaller) set(t *testing.T, contract common.Address, parsed abi.ABI, method string, values ...interface{}) {
	t.Helper()
	m, ok := parsed.Methods[method]
	require.True(t, ok, method)
	out, err := m.Outputs.Pack(values...)
	require.NoError(t, err)
	if f.responses == nil {
		f.responses = make(map[common.Address]map[string][]byte)
	}
	if f.responses[contract] == nil {
		f.responses[contract] = make(map[string][]byte)
	}
	f.responses[contract][string(m.ID)] = out
}

func newFakeDex(t *testing.T) *fakeCaller {
	t.Helper()
	parsed, err := DexABI()
	require.NoError(t, err)
	erc20, err := erc20ABI.get()
	require.NoError(t, err)

	f := &fakeCaller{}
	f.set(t, poolAddr, parsed, "spotPrice", big.NewInt(1_000_000), big.NewInt(2_000_000))
	f.set(t, poolAddr, parsed, "get_swaps_vol", big.NewInt(10_000), big.NewInt(0))
	f.set(t, poolAddr, parsed, "get_total_fees", big.NewInt(30), big.NewInt(0))
	f.set(t, poolAddr, parsed, "lpToken", lpAddr)
	f.set(t, poolAddr, parsed, "tokenA", tokenAAddr)
	f.set(t, poolAddr, parsed, "tokenB", tokenBAddr)
	f.set(t, lpAddr, erc20, "totalSupply", big.NewInt(1_000_000))
	f.set(t, tokenAAddr, erc20, "decimals", uint8(18))
	f.set(t, tokenAAddr, erc20, "symbol", "TKA")
	f.set(t, tokenBAddr, erc20, "decimals", uint8(6))
	return f
}

func TestReaderReadsPool(t *testing.T) {
	f := newFakeDex(t)
	r := NewReader(f, ReaderConfig{RetryBackoff: time.Millisecond}, nil)

	state, err := r.Read(context.Background(), poolAddr)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), state.ReserveA.Uint64())
	require.Equal(t, uint64(2_000_000), state.ReserveB.Uint64())
	require.Equal(t, uint64(10_000), state.VolumeA.Uint64())
	require.Equal(t, uint64(30), state.FeeA.Uint64())
	require.Equal(t, uint64(1_000_000), state.LPSupply.Uint64())
	require.Equal(t, lpAddr, state.LPToken)
	require.Equal(t, "TKA", state.TokenA.Symbol)
	require.Equal(t, uint8(18), state.TokenA.Decimals)
	// token B has no symbol; the read still succeeds
	require.Empty(t, state.TokenB.Symbol)
	require.Equal(t, uint8(6), state.TokenB.Decimals)

	snap := state.Snapshot("remote", 30)
	require.Equal(t, "1000000", snap.ReserveA)
	require.Equal(t, poolAddr.Hex(), snap.Address)

	s := state.State(30)
	require.Equal(t, tokenAAddr, s.TokenA)
	require.Equal(t, tokenBAddr, s.TokenB)
	require.Equal(t, uint16(30), s.FeeBps)
}

func TestReaderRetriesTransientFailures(t *testing.T) {
	f := newFakeDex(t)
	f.failFirst = 2
	r := NewReader(f, ReaderConfig{MaxRetries: 3, RetryBackoff: time.Millisecond}, nil)

	_, err := r.Read(context.Background(), poolAddr)
	require.NoError(t, err)
}

func TestReaderFailsOnMissingContract(t *testing.T) {
	r := NewReader(&fakeCaller{}, ReaderConfig{RetryBackoff: time.Millisecond}, nil)
	_, err := r.Read(context.Background(), poolAddr)
	require.Error(t, err)

	_, err = NewReader(nil, ReaderConfig{}, nil).Read(context.Background(), poolAddr)
	require.Error(t, err)
}

func TestReaderReadAll(t *testing.T) {
	f := newFakeDex(t)
	r := NewReader(f, ReaderConfig{RetryBackoff: time.Millisecond}, nil)

	states, err := r.ReadAll(context.Background(), poolAddr, poolAddr)
	require.NoError(t, err)
	require.Len(t, states, 2)
	require.Equal(t, states[0].ReserveA.Dec(), states[1].ReserveA.Dec())

	missing := common.HexToAddress("0x1000000000000000000000000000000000000003")
	_, err = r.ReadAll(context.Background(), poolAddr, missing)
	require.ErrorContains(t, err, missing.Hex())
}

func TestReaderDoesNotRetryReverts(t *testing.T) {
	f := newFakeDex(t)
	parsed, err := DexABI()
	require.NoError(t, err)
	delete(f.responses[poolAddr], string(parsed.Methods["lpToken"].ID))
	r := NewReader(f, ReaderConfig{MaxRetries: 5, RetryBackoff: time.Millisecond}, nil)

	_, err = r.Read(context.Background(), poolAddr)
	require.ErrorContains(t, err, "execution reverted")
	// three pair reads succeed, the reverted lpToken call runs once
	require.Equal(t, 4, f.calls)
}
