package rpc

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrNoClient is returned when an operation needs a connected client
var ErrNoClient = errors.New("no RPC client")

// Client wraps an Ethereum RPC client
type Client struct {
	*ethclient.Client
}

// ConnectResult holds the result of an RPC connection attempt
type ConnectResult struct {
	Client *Client
	Error  error
}

// ConnectWithTimeout attempts to connect to an Ethereum RPC endpoint within timeout
func ConnectWithTimeout(url string, timeout time.Duration) ConnectResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return ConnectResult{Client: nil, Error: err}
	}

	return ConnectResult{
		Client: &Client{Client: client},
		Error: nil,
	}
}

// AccountBalance is the native balance of an account at a point in time
type AccountBalance struct {
	Address  string
	Wei      *big.Int
	LoadedAt time.Time
}

// BalanceReader is anything that can read a native balance, such as a Client
// or a wallet backend
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// LoadBalance fetches the native balance for an address
func LoadBalance(client BalanceReader, addr common.Address) (AccountBalance, error) {
	return LoadBalanceWithTimeout(client, addr, 12*time.Second)
}

// LoadBalanceWithTimeout fetches the native balance with a custom timeout
func LoadBalanceWithTimeout(client BalanceReader, addr common.Address, timeout time.Duration) (AccountBalance, error) {
	b := AccountBalance{
		Address:  addr.Hex(),
		Wei:      big.NewInt(0),
		LoadedAt: time.Now(),
	}

	if client == nil {
		return b, ErrNoClient
	}
	if c, ok := client.(*Client); ok && (c == nil || c.Client == nil) {
		return b, ErrNoClient
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	wei, err := client.BalanceAt(ctx, addr, nil)
	if err != nil {
		return b, err
	}
	b.Wei = wei
	return b, nil
}
