package session

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"invoice-market-tui/config"
	"invoice-market-tui/contracts"
	"invoice-market-tui/wallet"
)

var (
	registryAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
	mintAddr     = common.HexToAddress("0x2000000000000000000000000000000000000002")
	purchaseAddr = common.HexToAddress("0x3000000000000000000000000000000000000003")
	settleAddr   = common.HexToAddress("0x4000000000000000000000000000000000000004")

	investor  = common.HexToAddress("0xcCcCCcCccCCCcCCCcccCCCCCcCCcCccCcCCCcCCc")
	smeAddr   = common.HexToAddress("0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa")
	clientAdr = common.HexToAddress("0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB")

	testNow = time.Unix(1_700_000_000, 0)
)

func testConfig() config.Config {
	return config.Config{
		Network: config.Network{
			ChainID: 5003,
			Name:    "Mantle Sepolia",
			RPCURL:  "https://rpc.sepolia.mantle.xyz",
			Currency: config.Currency{
				Name:     "Mantle",
				Symbol:   "MNT",
				Decimals: 18,
			},
		},
		Contracts: config.Contracts{
			Registry: registryAddr.Hex(),
			Mint:     mintAddr.Hex(),
			Purchase: purchaseAddr.Hex(),
			Settle:   settleAddr.Hex(),
		},
		ReceiptTimeout: 5 * time.Second,
	}
}

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// fakeBackend serves balances and receipts. Other methods are not used by the session.
type fakeBackend struct {
	wallet.Backend

	mu       sync.Mutex
	balance  *big.Int
	receipts map[common.Hash]*types.Receipt
	nonce    uint64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{balance: eth(1000), receipts: make(map[common.Hash]*types.Receipt)}
}

func (b *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.balance), nil
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// mine creates a transaction and stores its receipt
func (b *fakeBackend) mine(status uint64, logs ...*types.Log) *types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nonce++
	tx := types.NewTx(&types.LegacyTx{Nonce: b.nonce, Gas: 21000, GasPrice: big.NewInt(1)})
	b.receipts[tx.Hash()] = &types.Receipt{Status: status, TxHash: tx.Hash(), Logs: logs}
	return tx
}

// fakeProvider is an in-memory wallet
type fakeProvider struct {
	mu         sync.Mutex
	accounts   []common.Address
	requestErr error
	chainID    *big.Int
	known      map[uint64]bool
	switchErr  error
	added      []wallet.ChainParams
	subs       map[int]func(wallet.Event)
	nextSub    int
	backend    *fakeBackend

	// when set, RequestAccounts signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func newFakeProvider(chainID int64) *fakeProvider {
	return &fakeProvider{
		accounts: []common.Address{investor},
		chainID:  big.NewInt(chainID),
		known:    map[uint64]bool{uint64(chainID): true},
		subs:     make(map[int]func(wallet.Event)),
		backend:  newFakeBackend(),
	}
}

func (p *fakeProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if p.entered != nil {
		p.entered <- struct{}{}
		select {
		case <-p.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	return append([]common.Address(nil), p.accounts...), nil
}

func (p *fakeProvider) ChainID(context.Context) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.chainID), nil
}

func (p *fakeProvider) SwitchChain(_ context.Context, chainID *big.Int) error {
	p.mu.Lock()
	if p.switchErr != nil {
		err := p.switchErr
		p.mu.Unlock()
		return err
	}
	if !p.known[chainID.Uint64()] {
		p.mu.Unlock()
		return &wallet.ProviderError{Code: wallet.CodeUnrecognizedChain, Message: "unknown"}
	}
	p.chainID = new(big.Int).Set(chainID)
	p.mu.Unlock()

	p.emit(wallet.Event{Kind: wallet.ChainChanged, ChainID: chainID})
	return nil
}

func (p *fakeProvider) AddChain(ctx context.Context, params wallet.ChainParams) error {
	p.mu.Lock()
	p.known[params.ChainID.Uint64()] = true
	p.added = append(p.added, params)
	p.mu.Unlock()
	return p.SwitchChain(ctx, params.ChainID)
}

func (p *fakeProvider) Subscribe(fn func(wallet.Event)) func() {
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

func (p *fakeProvider) subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

func (p *fakeProvider) emit(ev wallet.Event) {
	p.mu.Lock()
	var fns []func(wallet.Event)
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (p *fakeProvider) Transactor(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	return &bind.TransactOpts{
		From:    account,
		Context: ctx,
		Signer: func(_ common.Address, tx *types.Transaction) (*types.Transaction, error) {
			return tx, nil
		},
	}, nil
}

func (p *fakeProvider) Backend() wallet.Backend {
	return p.backend
}

// fakeRegistry serves invoices from memory
type fakeRegistry struct {
	mu       sync.Mutex
	invoices map[string]contracts.Invoice
	failing  map[string]bool
	listErr  error
	ids      []*big.Int
}

func newFakeRegistry(invs ...contracts.Invoice) *fakeRegistry {
	r := &fakeRegistry{invoices: make(map[string]contracts.Invoice), failing: make(map[string]bool)}
	for _, inv := range invs {
		r.put(inv)
	}
	return r
}

func (r *fakeRegistry) put(inv contracts.Invoice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices[inv.ID.String()] = inv
	r.ids = append(r.ids, inv.ID)
}

func (r *fakeRegistry) Address() common.Address { return registryAddr }

func (r *fakeRegistry) GetInvoice(_ *bind.CallOpts, id *big.Int) (contracts.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing[id.String()] {
		return contracts.Invoice{}, errors.New("execution reverted")
	}
	inv, ok := r.invoices[id.String()]
	if !ok {
		return contracts.Invoice{}, errors.New("execution reverted: nonexistent token")
	}
	return inv, nil
}

func (r *fakeRegistry) list() ([]*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	// reverse order so sorting is observable
	out := make([]*big.Int, 0, len(r.ids))
	for i := len(r.ids) - 1; i >= 0; i-- {
		out = append(out, r.ids[i])
	}
	return out, nil
}

func (r *fakeRegistry) GetInvoicesByStatus(*bind.CallOpts, contracts.Status) ([]*big.Int, error) {
	return r.list()
}

func (r *fakeRegistry) GetInvoicesByOwner(*bind.CallOpts, common.Address) ([]*big.Int, error) {
	return r.list()
}

func (r *fakeRegistry) GetInvoicesByClient(*bind.CallOpts, common.Address) ([]*big.Int, error) {
	return r.list()
}

func (r *fakeRegistry) GetInvoicesBySME(*bind.CallOpts, common.Address) ([]*big.Int, error) {
	return r.list()
}

func (r *fakeRegistry) SupportsInterface(*bind.CallOpts, [4]byte) (bool, error) {
	return true, nil
}

type fakeMint struct {
	backend  *fakeBackend
	emitter  common.Address
	status   uint64
	nextID   int64
	calls    int
	lastURI  string
	lastFace *big.Int
}

func (m *fakeMint) Address() common.Address { return mintAddr }

func (m *fakeMint) Execute(_ *bind.TransactOpts, owner, client common.Address, face, sale, due *big.Int, uri string) (*types.Transaction, error) {
	m.calls++
	m.lastURI = uri
	m.lastFace = face
	l, err := contracts.MintedLog(m.emitter, contracts.InvoiceMinted{
		TokenID:   big.NewInt(m.nextID),
		SME:       owner,
		Client:    client,
		FaceValue: face,
		SalePrice: sale,
		DueDate:   due,
	})
	if err != nil {
		return nil, err
	}
	return m.backend.mine(m.status, l), nil
}

type fakePurchase struct {
	backend   *fakeBackend
	status    uint64
	calls     int
	lastValue *big.Int
}

func (p *fakePurchase) Address() common.Address { return purchaseAddr }

func (p *fakePurchase) Execute(opts *bind.TransactOpts, _ *big.Int) (*types.Transaction, error) {
	p.calls++
	p.lastValue = opts.Value
	return p.backend.mine(p.status), nil
}

type fakeSettle struct {
	backend   *fakeBackend
	calls     int
	lastValue *big.Int
	lastRepay bool
}

func (s *fakeSettle) Address() common.Address { return settleAddr }

func (s *fakeSettle) Execute(opts *bind.TransactOpts, _ *big.Int, isRepayment bool) (*types.Transaction, error) {
	s.calls++
	s.lastValue = opts.Value
	s.lastRepay = isRepayment
	return s.backend.mine(types.ReceiptStatusSuccessful), nil
}

// harness wires a session to fakes
type harness struct {
	s        *Session
	provider *fakeProvider
	registry *fakeRegistry
	mint     *fakeMint
	purchase *fakePurchase
	settle   *fakeSettle
	binds    int
	changes  *recorder
}

func newHarness(t *testing.T, chainID int64, cfg config.Config) *harness {
	t.Helper()
	p := newFakeProvider(chainID)
	h := &harness{
		provider: p,
		registry: newFakeRegistry(),
		mint:     &fakeMint{backend: p.backend, emitter: mintAddr, status: types.ReceiptStatusSuccessful, nextID: 1},
		purchase: &fakePurchase{backend: p.backend, status: types.ReceiptStatusSuccessful},
		settle:   &fakeSettle{backend: p.backend},
		changes:  &recorder{},
	}
	binder := func(addrs config.Contracts, _ wallet.Backend, _ *log.Logger) contracts.Set {
		h.binds++
		var set contracts.Set
		if addrs.Registry != "" {
			set.Registry = h.registry
		}
		if addrs.Mint != "" {
			set.Mint = h.mint
		}
		if addrs.Purchase != "" {
			set.Purchase = h.purchase
		}
		if addrs.Settle != "" {
			set.Settle = h.settle
		}
		return set
	}
	h.s = New(cfg, p,
		WithLogger(log.New(io.Discard)),
		WithBinder(binder),
		WithClock(func() time.Time { return testNow }),
	)
	h.s.Subscribe(h.changes.add)
	return h
}

type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) add(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) count(kind ChangeKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.changes {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) notices(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.changes {
		if c.Kind == ChangeNotice && c.Notice.Level == level {
			out = append(out, c.Notice.Message)
		}
	}
	return out
}

func listing(id int64, status contracts.Status) contracts.Invoice {
	return contracts.Invoice{
		ID:        big.NewInt(id),
		SME:       smeAddr,
		Client:    clientAdr,
		Holder:    smeAddr,
		FaceValue: eth(100),
		SalePrice: eth(90),
		CreatedAt: testNow.Add(-24 * time.Hour),
		DueDate:   testNow.Add(30 * 24 * time.Hour),
		Status:    status,
	}
}
