package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"invoice-market-tui/config"
	"invoice-market-tui/rpc"
)

// ErrNoKey is returned when no signing key source is configured
var ErrNoKey = errors.New("no wallet key configured")

// ErrUnknownAccount is returned when a transactor is requested for an account the wallet does not hold
var ErrUnknownAccount = errors.New("account not managed by this wallet")

// Dialer opens a backend for an RPC URL
type Dialer func(url string) (Backend, error)

// DialRPC dials with the rpc package connect timeout
func DialRPC(url string) (Backend, error) {
	result := rpc.ConnectWithTimeout(url, 8*time.Second)
	if result.Error != nil {
		return nil, result.Error
	}
	return result.Client, nil
}

// LocalProvider is a wallet backed by a local private key and a set of known RPC endpoints
type LocalProvider struct {
	mu       sync.Mutex
	key      *ecdsa.PrivateKey
	account  common.Address
	locked   bool
	networks map[uint64]string
	startURL string
	backend  Backend
	dial     Dialer
	subs     map[int]func(Event)
	nextSub  int
	logger   *log.Logger
}

// LocalOption configures a LocalProvider
type LocalOption func(*LocalProvider)

// WithDialer replaces the RPC dialer
func WithDialer(d Dialer) LocalOption {
	return func(p *LocalProvider) { p.dial = d }
}

// WithLogger sets the provider logger
func WithLogger(l *log.Logger) LocalOption {
	return func(p *LocalProvider) { p.logger = l }
}

// NewLocalProvider loads the signing key from the configuration. The RPC
// endpoint is not dialed until accounts are requested.
func NewLocalProvider(cfg config.Config, opts ...LocalOption) (*LocalProvider, error) {
	key, err := loadKey(cfg.Wallet)
	if err != nil {
		return nil, err
	}

	p := &LocalProvider{
		key:      key,
		account:  crypto.PubkeyToAddress(key.PublicKey),
		locked:   true,
		networks: map[uint64]string{cfg.Network.ChainID: cfg.Network.RPCURL},
		startURL: cfg.Network.RPCURL,
		dial:     DialRPC,
		subs:     make(map[int]func(Event)),
		logger:   log.Default(),
	}
	for _, n := range cfg.Wallet.Networks {
		p.networks[n.ChainID] = n.RPCURL
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func loadKey(w config.Wallet) (*ecdsa.PrivateKey, error) {
	switch {
	case w.PrivateKey != "":
		key, err := crypto.HexToECDSA(strings.TrimPrefix(w.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", config.KeyPrivateKey, err)
		}
		return key, nil
	case w.KeystorePath != "":
		data, err := os.ReadFile(w.KeystorePath)
		if err != nil {
			return nil, fmt.Errorf("read keystore: %w", err)
		}
		k, err := keystore.DecryptKey(data, w.KeystorePassword)
		if err != nil {
			return nil, fmt.Errorf("decrypt keystore: %w", err)
		}
		return k.PrivateKey, nil
	default:
		return nil, ErrNoKey
	}
}

// Account returns the address of the held key
func (p *LocalProvider) Account() common.Address {
	return p.account
}

// RequestAccounts unlocks the wallet and dials the starting network if needed
func (p *LocalProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	needDial := p.backend == nil
	url := p.startURL
	p.mu.Unlock()

	if needDial {
		backend, err := p.dial(url)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", url, err)
		}
		p.mu.Lock()
		if p.backend == nil {
			p.backend = backend
		}
		p.mu.Unlock()
	}

	p.mu.Lock()
	p.locked = false
	account := p.account
	p.mu.Unlock()

	p.logger.Debug("accounts granted", "account", account.Hex())
	return []common.Address{account}, nil
}

// ChainID asks the current endpoint for its chain id
func (p *LocalProvider) ChainID(ctx context.Context) (*big.Int, error) {
	backend := p.Backend()
	if backend == nil {
		return nil, rpc.ErrNoClient
	}
	return backend.ChainID(ctx)
}

// SwitchChain moves to a known network and emits ChainChanged. Unknown
// chains fail with ErrUnrecognizedChain.
func (p *LocalProvider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	if chainID == nil || !chainID.IsUint64() {
		return ErrUnrecognizedChain
	}

	p.mu.Lock()
	url, ok := p.networks[chainID.Uint64()]
	p.mu.Unlock()
	if !ok {
		return &ProviderError{Code: CodeUnrecognizedChain, Message: fmt.Sprintf("unrecognized chain id %s", chainID)}
	}

	backend, err := p.dial(url)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	got, err := backend.ChainID(ctx)
	if err != nil {
		return err
	}
	if got.Cmp(chainID) != 0 {
		return fmt.Errorf("endpoint %s reports chain %s, wanted %s", url, got, chainID)
	}

	p.mu.Lock()
	old := p.backend
	p.backend = backend
	p.mu.Unlock()
	closeBackend(old)

	p.logger.Info("switched chain", "chainId", got)
	p.emit(Event{Kind: ChainChanged, ChainID: new(big.Int).Set(got)})
	return nil
}

// AddChain remembers the network and switches to it
func (p *LocalProvider) AddChain(ctx context.Context, params ChainParams) error {
	if params.ChainID == nil || !params.ChainID.IsUint64() || len(params.RPCURLs) == 0 {
		return &ProviderError{Code: -32602, Message: "invalid add-chain parameters"}
	}

	p.mu.Lock()
	p.networks[params.ChainID.Uint64()] = params.RPCURLs[0]
	p.mu.Unlock()

	p.logger.Info("chain added", "chainId", params.ChainID, "name", params.ChainName)
	return p.SwitchChain(ctx, params.ChainID)
}

// Subscribe registers fn for wallet events
func (p *LocalProvider) Subscribe(fn func(Event)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Transactor returns signing options for account on the current chain
func (p *LocalProvider) Transactor(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	p.mu.Lock()
	locked := p.locked
	p.mu.Unlock()
	if locked {
		return nil, ErrUserRejected
	}
	if account != p.account {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account.Hex())
	}

	chainID, err := p.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(p.key, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// Backend returns the current endpoint, nil before accounts are requested
func (p *LocalProvider) Backend() Backend {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backend
}

// Lock removes account access and emits an empty AccountsChanged
func (p *LocalProvider) Lock() {
	p.mu.Lock()
	p.locked = true
	p.mu.Unlock()
	p.emit(Event{Kind: AccountsChanged, Accounts: []common.Address{}})
}

// Close drops the endpoint and emits Disconnect
func (p *LocalProvider) Close() {
	p.mu.Lock()
	old := p.backend
	p.backend = nil
	p.locked = true
	p.mu.Unlock()
	closeBackend(old)
	p.emit(Event{Kind: Disconnect})
}

// emit must be called without p.mu held
func (p *LocalProvider) emit(ev Event) {
	p.mu.Lock()
	subs := make([]func(Event), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func closeBackend(b Backend) {
	if c, ok := b.(interface{ Close() }); ok {
		c.Close()
	}
}
