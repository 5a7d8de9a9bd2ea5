package dex

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ammScope/internal/amm"
	"ammScope/internal/chain"
	"ammScope/internal/model"
)

const maxRetryDelay = 10 * time.Second

// ReaderConfig controls remote reads. Block 0 reads the latest state.
type ReaderConfig struct {
	Block        uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// Reader loads the state of deployed constant-product DEX contracts.
type Reader struct {
	caller  Caller
	cfg     ReaderConfig
	backoff chain.Backoff
	tokens  *TokenMetaCache
	logger  *zap.Logger
}

// PoolState is one read of a deployed pool.
type PoolState struct {
	Address  common.Address
	LPToken  common.Address
	TokenA   model.TokenMeta
	TokenB   model.TokenMeta
	ReserveA *uint256.Int
	ReserveB *uint256.Int
	VolumeA  *uint256.Int
	VolumeB  *uint256.Int
	FeeA     *uint256.Int
	FeeB     *uint256.Int
	LPSupply *uint256.Int
}

func NewReader(caller Caller, cfg ReaderConfig, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		caller:  caller,
		cfg:     cfg,
		backoff: chain.Backoff{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.RetryBackoff, MaxDelay: maxRetryDelay},
		tokens:  NewTokenMetaCache(),
		logger:  logger,
	}
}

// Read fetches reserves, cumulative volumes and fees, LP supply and token
// metadata of one pool.
func (r *Reader) Read(ctx context.Context, pool common.Address) (PoolState, error) {
	if r.caller == nil {
		return PoolState{}, fmt.Errorf("chain caller is nil")
	}
	parsed, err := DexABI()
	if err != nil {
		return PoolState{}, fmt.Errorf("parse dex abi: %w", err)
	}

	state := PoolState{Address: pool}
	if state.ReserveA, state.ReserveB, err = r.pair(ctx, pool, parsed, "spotPrice"); err != nil {
		return PoolState{}, err
	}
	if state.VolumeA, state.VolumeB, err = r.pair(ctx, pool, parsed, "get_swaps_vol"); err != nil {
		return PoolState{}, err
	}
	if state.FeeA, state.FeeB, err = r.pair(ctx, pool, parsed, "get_total_fees"); err != nil {
		return PoolState{}, err
	}
	if state.LPToken, err = r.address(ctx, pool, parsed, "lpToken"); err != nil {
		return PoolState{}, err
	}
	tokenA, err := r.address(ctx, pool, parsed, "tokenA")
	if err != nil {
		return PoolState{}, err
	}
	tokenB, err := r.address(ctx, pool, parsed, "tokenB")
	if err != nil {
		return PoolState{}, err
	}

	erc20, err := erc20ABI.get()
	if err != nil {
		return PoolState{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := r.call(ctx, state.LPToken, erc20, "totalSupply")
	if err != nil {
		return PoolState{}, fmt.Errorf("lp supply: %w", err)
	}
	if state.LPSupply, err = asUint256(values[0]); err != nil {
		return PoolState{}, fmt.Errorf("lp supply: %w", err)
	}

	state.TokenA = r.tokenMeta(ctx, tokenA)
	state.TokenB = r.tokenMeta(ctx, tokenB)
	return state, nil
}

// ReadAll reads several pools concurrently. Results follow the order of pools.
func (r *Reader) ReadAll(ctx context.Context, pools ...common.Address) ([]PoolState, error) {
	states := make([]PoolState, len(pools))
	g, gctx := errgroup.WithContext(ctx)
	for i, pool := range pools {
		i, pool := i, pool
		g.Go(func() error {
			st, err := r.Read(gctx, pool)
			if err != nil {
				return fmt.Errorf("read pool %s: %w", pool.Hex(), err)
			}
			states[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}

// State detaches the read reserves for quoting with the given fee.
func (p PoolState) State(feeBps uint16) amm.State {
	return amm.State{
		TokenA:   common.HexToAddress(p.TokenA.Address),
		TokenB:   common.HexToAddress(p.TokenB.Address),
		ReserveA: p.ReserveA.Clone(),
		ReserveB: p.ReserveB.Clone(),
		FeeBps:   feeBps,
	}
}

// Snapshot renders the read in the same shape as a local pool snapshot.
func (p PoolState) Snapshot(name string, feeBps uint16) model.PoolSnapshot {
	return model.PoolSnapshot{
		Name:     name,
		Address:  p.Address.Hex(),
		LPToken:  p.LPToken.Hex(),
		TokenA:   p.TokenA.Address,
		TokenB:   p.TokenB.Address,
		FeeBps:   feeBps,
		ReserveA: p.ReserveA.Dec(),
		ReserveB: p.ReserveB.Dec(),
		LPSupply: p.LPSupply.Dec(),
		VolumeA:  p.VolumeA.Dec(),
		VolumeB:  p.VolumeB.Dec(),
		FeeA:     p.FeeA.Dec(),
		FeeB:     p.FeeB.Dec(),
	}
}

func (r *Reader) block() *big.Int {
	if r.cfg.Block == 0 {
		return nil
	}
	return new(big.Int).SetUint64(r.cfg.Block)
}

func (r *Reader) call(ctx context.Context, contract common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	var values []interface{}
	err := r.backoff.Do(ctx, func(ctx context.Context) error {
		var err error
		values, err = callMethod(ctx, r.caller, contract, parsed, method, r.block())
		if err != nil {
			r.logger.Warn("contract call failed", zap.Error(err), zap.String("contract", contract.Hex()), zap.String("method", method))
		}
		return err
	})
	return values, err
}

func (r *Reader) pair(ctx context.Context, pool common.Address, parsed abi.ABI, method string) (*uint256.Int, *uint256.Int, error) {
	values, err := r.call(ctx, pool, parsed, method)
	if err != nil {
		return nil, nil, err
	}
	if len(values) != 2 {
		return nil, nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	a, err := asUint256(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", method, err)
	}
	b, err := asUint256(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", method, err)
	}
	return a, b, nil
}

func (r *Reader) address(ctx context.Context, pool common.Address, parsed abi.ABI, method string) (common.Address, error) {
	values, err := r.call(ctx, pool, parsed, method)
	if err != nil {
		return common.Address{}, err
	}
	addr, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", method, err)
	}
	return addr, nil
}
