package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// EIP-1193 / EIP-3326 error codes
const (
	CodeUserRejected      = 4001
	CodeUnrecognizedChain = 4902
)

// ProviderError is an error reported by the wallet with a numeric code
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
}

// Is matches any ProviderError with the same code
func (e *ProviderError) Is(target error) bool {
	var pe *ProviderError
	if !errors.As(target, &pe) {
		return false
	}
	return pe.Code == e.Code
}

var (
	ErrUserRejected      = &ProviderError{Code: CodeUserRejected, Message: "user rejected the request"}
	ErrUnrecognizedChain = &ProviderError{Code: CodeUnrecognizedChain, Message: "unrecognized chain id"}
)

// Backend is what contract bindings and receipt waits run against
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// EventKind identifies a wallet notification
type EventKind int

const (
	AccountsChanged EventKind = iota
	ChainChanged
	Disconnect
)

func (k EventKind) String() string {
	switch k {
	case AccountsChanged:
		return "accountsChanged"
	case ChainChanged:
		return "chainChanged"
	case Disconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is a notification pushed by the wallet
type Event struct {
	Kind     EventKind
	Accounts []common.Address // AccountsChanged, empty means the account was removed
	ChainID  *big.Int         // ChainChanged
	Err      error            // Disconnect
}

// ChainParams describe a network for an add-chain request
type ChainParams struct {
	ChainID           *big.Int
	ChainName         string
	CurrencyName      string
	CurrencySymbol    string
	CurrencyDecimals  uint8
	RPCURLs           []string
	BlockExplorerURLs []string
}

// Provider is the wallet the session talks to
type Provider interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SwitchChain(ctx context.Context, chainID *big.Int) error
	// AddChain registers the network and switches to it
	AddChain(ctx context.Context, params ChainParams) error
	Subscribe(fn func(Event)) (unsubscribe func())
	Transactor(ctx context.Context, account common.Address) (*bind.TransactOpts, error)
	Backend() Backend
}
