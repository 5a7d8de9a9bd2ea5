package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client is a read-only view of one chain over JSON-RPC.
type Client struct {
	rpcClient *rpc.Client
	eth       *ethclient.Client
}

// Head identifies the chain and the block reads are pinned to.
type Head struct {
	ChainID *big.Int
	Number  uint64
}

// NewClient dials rpcURL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{rpcClient: rpcClient, eth: ethclient.NewClient(rpcClient)}, nil
}

func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Head returns the chain id with block, or with the latest block when block
// is 0.
func (c *Client) Head(ctx context.Context, block uint64) (Head, error) {
	chainID, err := c.eth.ChainID(ctx)
	if err != nil {
		return Head{}, fmt.Errorf("get chain id: %w", err)
	}
	if block == 0 {
		if block, err = c.eth.BlockNumber(ctx); err != nil {
			return Head{}, fmt.Errorf("get latest block: %w", err)
		}
	}
	return Head{ChainID: chainID, Number: block}, nil
}

// CallContract performs an eth_call. A nil blockNumber reads the latest state.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.eth.CallContract(ctx, msg, blockNumber)
}
