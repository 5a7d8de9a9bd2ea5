package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// constant-product DEX views: reserves, cumulative volume and fees, and the
// pool's token addresses
const dexABIJSON = `[
  {
    "inputs": [],
    "name": "spotPrice",
    "outputs": [
      {"internalType": "uint256", "name": "reserveA", "type": "uint256"},
      {"internalType": "uint256", "name": "reserveB", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "get_swaps_vol",
    "outputs": [
      {"internalType": "uint256", "name": "volA", "type": "uint256"},
      {"internalType": "uint256", "name": "volB", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "get_total_fees",
    "outputs": [
      {"internalType": "uint256", "name": "feeA", "type": "uint256"},
      {"internalType": "uint256", "name": "feeB", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "lpToken",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "tokenA",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "tokenB",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

// ERC-20 views read from the pool's tokens and LP token.
const erc20ABIJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalSupply", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

// older tokens return symbol as bytes32
const erc20Bytes32ABIJSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

// lazyABI parses its JSON on first use.
type lazyABI struct {
	raw    string
	once   sync.Once
	parsed abi.ABI
	err    error
}

func (l *lazyABI) get() (abi.ABI, error) {
	l.once.Do(func() {
		l.parsed, l.err = abi.JSON(strings.NewReader(l.raw))
	})
	return l.parsed, l.err
}

var (
	dexABI          = &lazyABI{raw: dexABIJSON}
	erc20ABI        = &lazyABI{raw: erc20ABIJSON}
	erc20Bytes32ABI = &lazyABI{raw: erc20Bytes32ABIJSON}
)

// DexABI returns the parsed DEX contract ABI.
func DexABI() (abi.ABI, error) {
	return dexABI.get()
}
