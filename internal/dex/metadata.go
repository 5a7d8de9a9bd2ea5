package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"ammScope/internal/model"
)

// Caller performs read-only contract calls; *chain.Client implements it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[common.Address]model.TokenMeta)}
}

func (c *TokenMetaCache) Get(address common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.data[address]
	return meta, ok
}

func (c *TokenMetaCache) Set(address common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[address] = meta
}

func callMethod(ctx context.Context, caller Caller, contract common.Address, parsed abi.ABI, method string, block *big.Int) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, block)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, contract.Hex(), err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned nothing", method)
	}
	return values, nil
}

// tokenMeta returns cached metadata or reads decimals and symbol. A token
// without a readable symbol keeps an empty one; a failed decimals read is
// logged and leaves Decimals at zero.
func (r *Reader) tokenMeta(ctx context.Context, token common.Address) model.TokenMeta {
	if meta, ok := r.tokens.Get(token); ok {
		return meta
	}

	meta := model.TokenMeta{Address: token.Hex()}
	if decimals, err := r.decimals(ctx, token); err != nil {
		r.logger.Warn("token decimals read failed", zap.String("token", token.Hex()), zap.Error(err))
	} else {
		meta.Decimals = decimals
	}
	meta.Symbol = r.symbol(ctx, token)

	r.tokens.Set(token, meta)
	return meta
}

func (r *Reader) decimals(ctx context.Context, token common.Address) (uint8, error) {
	parsed, err := erc20ABI.get()
	if err != nil {
		return 0, err
	}
	values, err := r.call(ctx, token, parsed, "decimals")
	if err != nil {
		return 0, err
	}
	v, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unsupported decimals type %T", values[0])
	}
	return v, nil
}

// symbol tries the string ABI, then the bytes32 one.
func (r *Reader) symbol(ctx context.Context, token common.Address) string {
	for _, l := range []*lazyABI{erc20ABI, erc20Bytes32ABI} {
		parsed, err := l.get()
		if err != nil {
			continue
		}
		values, err := r.call(ctx, token, parsed, "symbol")
		if err != nil {
			r.logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
			continue
		}
		switch v := values[0].(type) {
		case string:
			return v
		case [32]byte:
			return string(bytes.TrimRight(v[:], "\x00"))
		}
	}
	return ""
}

func asAddress(value interface{}) (common.Address, error) {
	v, ok := value.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
	return v, nil
}

func asUint256(value interface{}) (*uint256.Int, error) {
	v, ok := value.(*big.Int)
	if !ok || v == nil {
		return nil, fmt.Errorf("unsupported uint256 type %T", value)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %s", v)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("amount exceeds 256 bits: %s", v)
	}
	return out, nil
}
