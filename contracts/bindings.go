package contracts

import (
	"math/big"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"invoice-market-tui/config"
)

// Registry is the read side of the invoice NFT contract
type Registry interface {
	Address() common.Address
	GetInvoice(opts *bind.CallOpts, tokenID *big.Int) (Invoice, error)
	GetInvoicesByStatus(opts *bind.CallOpts, status Status) ([]*big.Int, error)
	GetInvoicesByOwner(opts *bind.CallOpts, owner common.Address) ([]*big.Int, error)
	GetInvoicesByClient(opts *bind.CallOpts, client common.Address) ([]*big.Int, error)
	GetInvoicesBySME(opts *bind.CallOpts, sme common.Address) ([]*big.Int, error)
	SupportsInterface(opts *bind.CallOpts, id [4]byte) (bool, error)
}

// MintAction tokenizes a new invoice
type MintAction interface {
	Address() common.Address
	Execute(opts *bind.TransactOpts, owner, client common.Address, faceValue, salePrice, dueDate *big.Int, uri string) (*types.Transaction, error)
}

// PurchaseAction buys an invoice that is on the market. opts.Value carries the payment.
type PurchaseAction interface {
	Address() common.Address
	Execute(opts *bind.TransactOpts, tokenID *big.Int) (*types.Transaction, error)
}

// SettleAction repays or defaults an invoice
type SettleAction interface {
	Address() common.Address
	Execute(opts *bind.TransactOpts, tokenID *big.Int, isRepayment bool) (*types.Transaction, error)
}

// Set is one binding per configured contract. Nil members were not configured.
type Set struct {
	Registry Registry
	Mint     MintAction
	Purchase PurchaseAction
	Settle   SettleAction
}

// Missing returns the config keys of every absent binding
func (s Set) Missing() []string {
	var missing []string
	if s.Registry == nil {
		missing = append(missing, config.KeyRegistryAddress)
	}
	if s.Mint == nil {
		missing = append(missing, config.KeyMintAddress)
	}
	if s.Purchase == nil {
		missing = append(missing, config.KeyPurchaseAddress)
	}
	if s.Settle == nil {
		missing = append(missing, config.KeySettleAddress)
	}
	return missing
}

// Complete reports whether every binding is present
func (s Set) Complete() bool {
	return len(s.Missing()) == 0
}

// Bind creates a binding for every configured address against backend.
// Empty or malformed addresses are logged and skipped.
func Bind(addrs config.Contracts, backend bind.ContractBackend, logger *log.Logger) Set {
	var set Set
	if a, ok := parseAddress(addrs.Registry, config.KeyRegistryAddress, logger); ok {
		set.Registry = &registry{address: a, contract: bind.NewBoundContract(a, registryABI, backend, backend, backend)}
	}
	if a, ok := parseAddress(addrs.Mint, config.KeyMintAddress, logger); ok {
		set.Mint = &mintAction{address: a, contract: bind.NewBoundContract(a, mintABI, backend, backend, backend)}
	}
	if a, ok := parseAddress(addrs.Purchase, config.KeyPurchaseAddress, logger); ok {
		set.Purchase = &purchaseAction{address: a, contract: bind.NewBoundContract(a, purchaseABI, backend, backend, backend)}
	}
	if a, ok := parseAddress(addrs.Settle, config.KeySettleAddress, logger); ok {
		set.Settle = &settleAction{address: a, contract: bind.NewBoundContract(a, settleABI, backend, backend, backend)}
	}
	return set
}

func parseAddress(s, key string, logger *log.Logger) (common.Address, bool) {
	if s == "" {
		logger.Error("contract address not configured, binding skipped", "key", key)
		return common.Address{}, false
	}
	if !common.IsHexAddress(s) {
		logger.Error("contract address is not a valid address, binding skipped", "key", key, "value", s)
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

type registry struct {
	address  common.Address
	contract *bind.BoundContract
}

func (r *registry) Address() common.Address { return r.address }

func (r *registry) GetInvoice(opts *bind.CallOpts, tokenID *big.Int) (Invoice, error) {
	var out []interface{}
	if err := r.contract.Call(opts, &out, "getInvoice", tokenID); err != nil {
		return Invoice{}, err
	}
	raw := *abi.ConvertType(out[0], new(RawInvoice)).(*RawInvoice)
	return Normalize(raw), nil
}

func (r *registry) GetInvoicesByStatus(opts *bind.CallOpts, status Status) ([]*big.Int, error) {
	return r.ids(opts, "getInvoicesByStatus", uint8(status))
}

func (r *registry) GetInvoicesByOwner(opts *bind.CallOpts, owner common.Address) ([]*big.Int, error) {
	return r.ids(opts, "getInvoicesByOwner", owner)
}

func (r *registry) GetInvoicesByClient(opts *bind.CallOpts, client common.Address) ([]*big.Int, error) {
	return r.ids(opts, "getInvoicesByClient", client)
}

func (r *registry) GetInvoicesBySME(opts *bind.CallOpts, sme common.Address) ([]*big.Int, error) {
	return r.ids(opts, "getInvoicesBySME", sme)
}

func (r *registry) SupportsInterface(opts *bind.CallOpts, id [4]byte) (bool, error) {
	var out []interface{}
	if err := r.contract.Call(opts, &out, "supportsInterface", id); err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (r *registry) ids(opts *bind.CallOpts, method string, arg interface{}) ([]*big.Int, error) {
	var out []interface{}
	if err := r.contract.Call(opts, &out, method, arg); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}

type mintAction struct {
	address  common.Address
	contract *bind.BoundContract
}

func (m *mintAction) Address() common.Address { return m.address }

func (m *mintAction) Execute(opts *bind.TransactOpts, owner, client common.Address, faceValue, salePrice, dueDate *big.Int, uri string) (*types.Transaction, error) {
	return m.contract.Transact(opts, "execute", owner, client, faceValue, salePrice, dueDate, uri)
}

type purchaseAction struct {
	address  common.Address
	contract *bind.BoundContract
}

func (p *purchaseAction) Address() common.Address { return p.address }

func (p *purchaseAction) Execute(opts *bind.TransactOpts, tokenID *big.Int) (*types.Transaction, error) {
	return p.contract.Transact(opts, "execute", tokenID)
}

type settleAction struct {
	address  common.Address
	contract *bind.BoundContract
}

func (s *settleAction) Address() common.Address { return s.address }

func (s *settleAction) Execute(opts *bind.TransactOpts, tokenID *big.Int, isRepayment bool) (*types.Transaction, error) {
	return s.contract.Transact(opts, "execute", tokenID, isRepayment)
}
