package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"invoice-market-tui/config"
	"invoice-market-tui/contracts"
	"invoice-market-tui/helpers"
	"invoice-market-tui/wallet"
)

// State of the wallet session
type State int

const (
	Disconnected State = iota
	Connecting
	ConnectedWrongNetwork
	ConnectedReady
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case ConnectedWrongNetwork:
		return "ConnectedWrongNetwork"
	case ConnectedReady:
		return "ConnectedReady"
	default:
		return "Disconnected"
	}
}

// Snapshot is a consistent copy of the session attributes
type Snapshot struct {
	State           State
	Account         common.Address
	HasAccount      bool
	ChainID         *big.Int // nil when unknown
	IsTargetNetwork bool
	Connecting      bool
	TargetChainID   uint64
	TargetName      string
	MissingBindings []string // only meaningful in ConnectedReady
}

// ChangeKind tells observers what happened
type ChangeKind int

const (
	ChangeState ChangeKind = iota
	ChangeHistory
	ChangeNotice
	// ChangeReload means the chain changed under a ready session: bindings,
	// account and history were dropped and the UI must start over.
	ChangeReload
)

// Change is delivered to observers after the session lock is released
type Change struct {
	Kind     ChangeKind
	Snapshot Snapshot
	Notice   *Notice
	Entry    *Entry
}

// Level of a notice
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

// Notice is a transient user-facing notification
type Notice struct {
	ID      string
	Level   Level
	Message string
	Time    time.Time
}

// Binder creates contract bindings against a backend
type Binder func(addrs config.Contracts, backend wallet.Backend, logger *log.Logger) contracts.Set

// DefaultBinder binds the real contracts
func DefaultBinder(addrs config.Contracts, backend wallet.Backend, logger *log.Logger) contracts.Set {
	return contracts.Bind(addrs, backend, logger)
}

// Option configures a Session
type Option func(*Session)

func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func WithBinder(b Binder) Option {
	return func(s *Session) { s.binder = b }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session owns the wallet connection, the contract bindings and the
// transaction history. Fields are guarded by mu, which is never held while
// calling the wallet or a contract.
type Session struct {
	cfg      config.Config
	provider wallet.Provider
	logger   *log.Logger
	binder   Binder
	now      func() time.Time
	history  *History

	mu          sync.RWMutex
	state       State
	account     *common.Address
	chainID     *big.Int
	set         contracts.Set
	bound       bool
	unsubscribe func()
	gen         uint64

	obsMu     sync.Mutex
	observers map[int]func(Change)
	nextObs   int
}

// New creates a disconnected session. provider may be nil when no wallet is configured.
func New(cfg config.Config, provider wallet.Provider, opts ...Option) *Session {
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = config.DefaultReceiptTimeout
	}
	s := &Session{
		cfg:       cfg,
		provider:  provider,
		logger:    log.Default(),
		binder:    DefaultBinder,
		now:       time.Now,
		history:   NewHistory(),
		observers: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration the session was created with
func (s *Session) Config() config.Config {
	return s.cfg
}

// History returns the transaction log
func (s *Session) History() *History {
	return s.history
}

// Subscribe registers an observer. Observers run on whichever goroutine
// caused the change and must not block.
func (s *Session) Subscribe(fn func(Change)) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Session) publish(c Change) {
	s.obsMu.Lock()
	obs := make([]func(Change), 0, len(s.observers))
	for _, fn := range s.observers {
		obs = append(obs, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range obs {
		fn(c)
	}
}

func (s *Session) publishState(kind ChangeKind) {
	s.publish(Change{Kind: kind, Snapshot: s.Snapshot()})
}

func (s *Session) notify(level Level, format string, args ...interface{}) {
	n := &Notice{
		ID:      uuid.NewString(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		Time:    s.now(),
	}
	s.publish(Change{Kind: ChangeNotice, Notice: n})
}

// Snapshot returns a copy of the session attributes
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:         s.state,
		Connecting:    s.state == Connecting,
		TargetChainID: s.cfg.Network.ChainID,
		TargetName:    s.cfg.Network.Name,
	}
	if s.account != nil {
		snap.Account = *s.account
		snap.HasAccount = true
	}
	if s.chainID != nil {
		snap.ChainID = new(big.Int).Set(s.chainID)
		snap.IsTargetNetwork = s.isTarget(s.chainID)
	}
	if s.state == ConnectedReady {
		snap.MissingBindings = s.set.Missing()
	}
	return snap
}

func (s *Session) isTarget(chainID *big.Int) bool {
	return chainID != nil && chainID.IsUint64() && chainID.Uint64() == s.cfg.Network.ChainID
}

// Bindings returns the current contract bindings and whether they exist at all
func (s *Session) Bindings() (contracts.Set, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set, s.bound
}

// Connect requests account access, checks the network and binds the contracts
// when the wallet is on the target chain. A wrong chain is not an error: the
// session stops in ConnectedWrongNetwork without bindings.
func (s *Session) Connect(ctx context.Context) error {
	if s.provider == nil {
		s.notify(LevelError, "No wallet found. Configure WALLET_PRIVATE_KEY or WALLET_KEYSTORE.")
		return ErrWalletNotInstalled
	}
	if missing := s.cfg.MissingContracts(); s.cfg.StrictContracts && len(missing) > 0 {
		err := fmt.Errorf("%w: %s", ErrContractsNotConfigured, strings.Join(missing, ", "))
		s.notify(LevelError, "%v", err)
		return err
	}

	s.mu.Lock()
	if s.state == Connecting {
		s.mu.Unlock()
		return ErrConnectInProgress
	}
	s.state = Connecting
	gen := s.gen
	s.mu.Unlock()
	s.publishState(ChangeState)

	accounts, err := s.provider.RequestAccounts(ctx)
	if err == nil && len(accounts) == 0 {
		err = ErrNoAccountsGranted
	}
	if err != nil {
		if errors.Is(err, wallet.ErrUserRejected) {
			err = fmt.Errorf("%w: %v", ErrNoAccountsGranted, err)
		}
		return s.abortConnect(gen, err)
	}

	chainID, err := s.provider.ChainID(ctx)
	if err == nil && chainID == nil {
		err = errors.New("wallet returned no chain id")
	}
	if err != nil {
		return s.abortConnect(gen, fmt.Errorf("read chain id: %w", err))
	}

	account := accounts[0]
	onTarget := s.isTarget(chainID)
	var set contracts.Set
	if onTarget {
		set = s.binder(s.cfg.Contracts, s.provider.Backend(), s.logger)
	}
	unsubscribe := s.provider.Subscribe(s.handleEvent)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		unsubscribe()
		s.logger.Debug("connect superseded by disconnect")
		return nil
	}
	old := s.unsubscribe
	s.unsubscribe = unsubscribe
	s.account = &account
	s.chainID = chainID
	if onTarget {
		s.state = ConnectedReady
		s.set, s.bound = set, true
	} else {
		s.state = ConnectedWrongNetwork
		s.set, s.bound = contracts.Set{}, false
	}
	s.mu.Unlock()
	if old != nil {
		old()
	}

	s.logger.Info("wallet connected", "account", account.Hex(), "chainId", chainID, "target", onTarget)
	if !onTarget {
		s.notify(LevelWarn, "Connected to %s. Switch to %s to continue.", helpers.NetworkName(chainID.Uint64()), s.cfg.Network.Name)
	} else {
		s.logBindings(set)
		s.probeRegistry(ctx, set)
		s.notify(LevelSuccess, "Wallet connected: %s", helpers.ShortenAddr(account.Hex()))
	}
	s.publishState(ChangeState)
	return nil
}

func (s *Session) abortConnect(gen uint64, err error) error {
	s.mu.Lock()
	if s.gen == gen && s.state == Connecting {
		s.state = Disconnected
	}
	s.mu.Unlock()

	s.logger.Error("connect failed", "err", err)
	s.notify(LevelError, "Failed to connect wallet: %v", err)
	s.publishState(ChangeState)
	return err
}

func (s *Session) logBindings(set contracts.Set) {
	for _, key := range set.Missing() {
		s.logger.Error("contract binding unavailable", "key", key)
	}
}

// probeRegistry checks the registry answers as an ERC-721. Failure is only logged.
func (s *Session) probeRegistry(ctx context.Context, set contracts.Set) {
	if set.Registry == nil {
		return
	}
	ok, err := set.Registry.SupportsInterface(&bind.CallOpts{Context: ctx}, contracts.ERC721InterfaceID)
	if err != nil {
		s.logger.Warn("registry probe failed", "address", set.Registry.Address().Hex(), "err", err)
		return
	}
	if !ok {
		s.logger.Warn("registry does not report ERC-721 support", "address", set.Registry.Address().Hex())
	}
}

// Disconnect clears account, chain id and bindings. It is idempotent.
func (s *Session) Disconnect() {
	s.mu.Lock()
	unsubscribe := s.clearLocked()
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	s.logger.Info("wallet disconnected")
	s.publishState(ChangeState)
}

// clearLocked resets the session and returns the event unsubscribe func to call after unlocking
func (s *Session) clearLocked() func() {
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.account = nil
	s.chainID = nil
	s.set, s.bound = contracts.Set{}, false
	s.state = Disconnected
	s.gen++
	return unsubscribe
}

// SwitchNetwork asks the wallet to move to the target chain, adding it first
// if the wallet does not know it. The session state only changes when the
// wallet reports the new chain.
func (s *Session) SwitchNetwork(ctx context.Context) error {
	if s.provider == nil {
		return ErrWalletNotInstalled
	}
	target := s.cfg.Network.TargetChainID()

	err := s.provider.SwitchChain(ctx, target)
	if errors.Is(err, wallet.ErrUnrecognizedChain) {
		s.logger.Info("target chain unknown to wallet, adding it", "chainId", target)
		err = s.provider.AddChain(ctx, s.chainParams())
	}
	if err != nil {
		s.logger.Warn("network switch failed", "err", err)
		s.notify(LevelWarn, "Could not switch to %s: %v", s.cfg.Network.Name, err)
		return err
	}
	return nil
}

func (s *Session) chainParams() wallet.ChainParams {
	n := s.cfg.Network
	return wallet.ChainParams{
		ChainID:           n.TargetChainID(),
		ChainName:         n.Name,
		CurrencyName:      n.Currency.Name,
		CurrencySymbol:    n.Currency.Symbol,
		CurrencyDecimals:  n.Currency.Decimals,
		RPCURLs:           []string{n.RPCURL},
		BlockExplorerURLs: []string{s.explorerBase()},
	}
}

func (s *Session) explorerBase() string {
	if s.cfg.Network.ExplorerURL != "" {
		return strings.TrimRight(s.cfg.Network.ExplorerURL, "/")
	}
	return helpers.ExplorerBaseURL(s.cfg.Network.ChainID)
}

// TransactionURL links a hash on the target network's explorer
func (s *Session) TransactionURL(hash string) string {
	return helpers.JoinExplorer(s.explorerBase(), "tx", hash)
}

// AddressURL links an address on the target network's explorer
func (s *Session) AddressURL(addr string) string {
	return helpers.JoinExplorer(s.explorerBase(), "address", addr)
}

// TokenURL links an invoice token of the registry contract
func (s *Session) TokenURL(tokenID *big.Int) string {
	return helpers.JoinExplorer(s.explorerBase(), "token", s.cfg.Contracts.Registry) + "?a=" + tokenID.String()
}

func (s *Session) handleEvent(ev wallet.Event) {
	s.logger.Debug("wallet event", "kind", ev.Kind, "accounts", len(ev.Accounts), "chainId", ev.ChainID)
	switch ev.Kind {
	case wallet.AccountsChanged:
		s.onAccountsChanged(ev.Accounts)
	case wallet.ChainChanged:
		s.onChainChanged(ev.ChainID)
	case wallet.Disconnect:
		s.Disconnect()
		s.notify(LevelWarn, "Wallet disconnected")
	}
}

func (s *Session) onAccountsChanged(accounts []common.Address) {
	if len(accounts) == 0 {
		s.Disconnect()
		s.notify(LevelWarn, "Wallet account removed")
		return
	}

	s.mu.RLock()
	state, gen := s.state, s.gen
	s.mu.RUnlock()
	if state != ConnectedReady && state != ConnectedWrongNetwork {
		return
	}

	// bindings are recreated for the new signer
	var set contracts.Set
	if state == ConnectedReady {
		set = s.binder(s.cfg.Contracts, s.provider.Backend(), s.logger)
	}

	account := accounts[0]
	s.mu.Lock()
	if s.gen != gen || s.state != state {
		s.mu.Unlock()
		return
	}
	s.account = &account
	if state == ConnectedReady {
		s.set, s.bound = set, true
	}
	s.mu.Unlock()

	s.logger.Info("account changed", "account", account.Hex())
	s.publishState(ChangeState)
}

func (s *Session) onChainChanged(chainID *big.Int) {
	s.mu.RLock()
	state, gen := s.state, s.gen
	s.mu.RUnlock()

	switch state {
	case ConnectedReady:
		s.reload(gen)
	case ConnectedWrongNetwork:
		onTarget := s.isTarget(chainID)
		var set contracts.Set
		if onTarget {
			set = s.binder(s.cfg.Contracts, s.provider.Backend(), s.logger)
		}

		s.mu.Lock()
		if s.gen != gen || s.state != ConnectedWrongNetwork {
			s.mu.Unlock()
			return
		}
		if chainID != nil {
			s.chainID = new(big.Int).Set(chainID)
		}
		if onTarget {
			s.state = ConnectedReady
			s.set, s.bound = set, true
		}
		s.mu.Unlock()

		if onTarget {
			s.logBindings(set)
			s.logger.Info("switched to target network", "chainId", chainID)
			s.notify(LevelSuccess, "Switched to %s", s.cfg.Network.Name)
		}
		s.publishState(ChangeState)
	}
}

// reload is the ConnectedReady -> Disconnected transition taken on any chain
// change. Everything tied to the old chain is dropped, history included.
func (s *Session) reload(gen uint64) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	unsubscribe := s.clearLocked()
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	s.history.Clear()

	s.logger.Warn("chain changed while connected, session reloaded")
	s.publishState(ChangeReload)
	s.notify(LevelWarn, "Network changed. Session was reset, reconnect to continue.")
}
