package session

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"invoice-market-tui/contracts"
	"invoice-market-tui/helpers"
	"invoice-market-tui/wallet"
)

// fetchConcurrency bounds parallel getInvoice calls for list reads
const fetchConcurrency = 8

// TokenizeRequest is the user input for minting an invoice. Amounts are
// decimal strings in the native currency.
type TokenizeRequest struct {
	Client      string
	FaceValue   string
	SalePrice   string
	DueDate     time.Time
	MetadataURI string
}

// need selects the bindings an operation requires
type need struct {
	registry, mint, purchase, settle bool
}

// writeEnv is what a write operation runs with, captured under the lock
type writeEnv struct {
	account common.Address
	set     contracts.Set
	backend wallet.Backend
}

func (s *Session) writeEnv(n need) (writeEnv, error) {
	s.mu.RLock()
	state, set := s.state, s.set
	var account common.Address
	if s.account != nil {
		account = *s.account
	}
	s.mu.RUnlock()

	switch state {
	case ConnectedReady:
	case ConnectedWrongNetwork:
		return writeEnv{}, fmt.Errorf("%w: %w", ErrContractsNotInitialized, ErrWrongNetwork)
	default:
		return writeEnv{}, fmt.Errorf("%w: wallet not connected", ErrContractsNotInitialized)
	}

	var missing []string
	if n.registry && set.Registry == nil {
		missing = append(missing, "registry")
	}
	if n.mint && set.Mint == nil {
		missing = append(missing, "mint action")
	}
	if n.purchase && set.Purchase == nil {
		missing = append(missing, "purchase action")
	}
	if n.settle && set.Settle == nil {
		missing = append(missing, "settle action")
	}
	if len(missing) > 0 {
		return writeEnv{}, fmt.Errorf("%w: missing %s", ErrContractsNotInitialized, strings.Join(missing, ", "))
	}

	backend := s.provider.Backend()
	if backend == nil {
		return writeEnv{}, fmt.Errorf("%w: wallet has no backend", ErrContractsNotInitialized)
	}
	return writeEnv{account: account, set: set, backend: backend}, nil
}

// fail logs, emits an error notice and returns err unchanged
func (s *Session) fail(op string, err error) error {
	s.logger.Error(op+" failed", "err", err)
	s.notify(LevelError, "%s failed: %v", op, err)
	return err
}

func (s *Session) waitMined(ctx context.Context, backend wallet.Backend, op string, tx *types.Transaction) (*types.Receipt, error) {
	s.logger.Info("transaction submitted", "op", op, "hash", tx.Hash().Hex())

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReceiptTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(ctx, backend, tx)
	if err != nil {
		return nil, &CallError{Op: op, Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, &CallError{Op: op, Err: fmt.Errorf("transaction %s reverted", tx.Hash().Hex())}
	}
	return receipt, nil
}

func (s *Session) record(typ TxType, hash common.Hash, id *big.Int, description string) {
	e := Entry{
		Hash:        hash.Hex(),
		Type:        typ,
		Description: description,
		CreatedAt:   s.now(),
		ExplorerURL: s.TransactionURL(hash.Hex()),
	}
	if id != nil {
		e.InvoiceID = new(big.Int).Set(id)
	}
	s.history.Add(e)
	s.publish(Change{Kind: ChangeHistory, Snapshot: s.Snapshot(), Entry: &e})
}

func (s *Session) transactor(ctx context.Context, env writeEnv) (*bind.TransactOpts, error) {
	opts, err := s.provider.Transactor(ctx, env.account)
	if err != nil {
		return nil, fmt.Errorf("wallet signer: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// TokenizeInvoice mints an invoice and returns its token id. The receipt must
// carry an InvoiceMinted event from the mint action contract itself.
func (s *Session) TokenizeInvoice(ctx context.Context, req TokenizeRequest) (*big.Int, error) {
	const op = "Tokenize invoice"

	env, err := s.writeEnv(need{registry: true, mint: true})
	if err != nil {
		return nil, s.fail(op, err)
	}

	if !helpers.IsValidEthAddress(req.Client) {
		return nil, s.fail(op, fmt.Errorf("%w: %q", ErrInvalidClient, req.Client))
	}
	client := common.HexToAddress(req.Client)
	face, err := helpers.ParseUnits(req.FaceValue, s.cfg.Network.Currency.Decimals)
	if err != nil {
		return nil, s.fail(op, fmt.Errorf("face value: %w", err))
	}
	sale, err := helpers.ParseUnits(req.SalePrice, s.cfg.Network.Currency.Decimals)
	if err != nil {
		return nil, s.fail(op, fmt.Errorf("sale price: %w", err))
	}
	uri := req.MetadataURI
	if uri == "" {
		uri = fmt.Sprintf("ipfs://invoice-%d", s.now().UnixMilli())
	}

	opts, err := s.transactor(ctx, env)
	if err != nil {
		return nil, s.fail(op, err)
	}
	tx, err := env.set.Mint.Execute(opts, env.account, client, face, sale, big.NewInt(req.DueDate.Unix()), uri)
	if err != nil {
		return nil, s.fail(op, &CallError{Op: "mint", Err: err})
	}
	receipt, err := s.waitMined(ctx, env.backend, "mint", tx)
	if err != nil {
		return nil, s.fail(op, err)
	}

	minted, ok := contracts.FindMinted(receipt, env.set.Mint.Address())
	if !ok {
		return nil, s.fail(op, fmt.Errorf("%w: tx %s", ErrMintEventNotFound, tx.Hash().Hex()))
	}

	s.logger.Info("invoice tokenized", "tokenId", minted.TokenID, "hash", tx.Hash().Hex())
	s.record(TxMint, tx.Hash(), minted.TokenID, fmt.Sprintf("Tokenized invoice #%s for %s",
		minted.TokenID, helpers.FormatAmount(face, s.cfg.Network.Currency.Symbol)))
	s.notify(LevelSuccess, "Invoice #%s tokenized", minted.TokenID)
	return minted.TokenID, nil
}

// BuyInvoice purchases an invoice at its sale price. The pre-checks are
// optimistic: the purchase contract has the final word.
func (s *Session) BuyInvoice(ctx context.Context, tokenID *big.Int) (*types.Receipt, error) {
	const op = "Purchase invoice"

	env, err := s.writeEnv(need{registry: true, purchase: true})
	if err != nil {
		return nil, s.fail(op, err)
	}

	inv, err := env.set.Registry.GetInvoice(s.callOpts(ctx, env.account), tokenID)
	if err != nil {
		return nil, s.fail(op, &CallError{Op: "getInvoice", Err: err})
	}
	if strings.EqualFold(env.account.Hex(), inv.SME.Hex()) {
		return nil, s.fail(op, ErrSelfPurchaseRejected)
	}
	if inv.Status != contracts.StatusOnMarket {
		return nil, s.fail(op, fmt.Errorf("%w: status is %s", ErrInvoiceNotForSale, inv.Status))
	}
	if err := inv.Validate(); err != nil {
		return nil, s.fail(op, fmt.Errorf("%w: %w", ErrInvalidInvoice, err))
	}

	balance, err := env.backend.BalanceAt(ctx, env.account, nil)
	if err != nil {
		return nil, s.fail(op, &CallError{Op: "balance", Err: err})
	}
	if balance.Cmp(inv.SalePrice) < 0 {
		symbol := s.cfg.Network.Currency.Symbol
		return nil, s.fail(op, fmt.Errorf("%w: need %s, have %s", ErrInsufficientBalance,
			helpers.FormatAmount(inv.SalePrice, symbol), helpers.FormatAmount(balance, symbol)))
	}

	opts, err := s.transactor(ctx, env)
	if err != nil {
		return nil, s.fail(op, err)
	}
	opts.Value = new(big.Int).Set(inv.SalePrice)
	tx, err := env.set.Purchase.Execute(opts, tokenID)
	if err != nil {
		return nil, s.fail(op, &CallError{Op: "purchase", Err: err})
	}
	receipt, err := s.waitMined(ctx, env.backend, "purchase", tx)
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.logger.Info("invoice purchased", "tokenId", tokenID, "hash", tx.Hash().Hex())
	s.record(TxPurchase, tx.Hash(), tokenID, fmt.Sprintf("Purchased invoice #%s for %s",
		tokenID, helpers.FormatAmount(inv.SalePrice, s.cfg.Network.Currency.Symbol)))
	s.notify(LevelSuccess, "Invoice #%s purchased", tokenID)
	return receipt, nil
}

// RepayInvoice pays the face value of an invoice
func (s *Session) RepayInvoice(ctx context.Context, tokenID *big.Int) (*types.Receipt, error) {
	const op = "Repay invoice"

	env, err := s.writeEnv(need{registry: true, settle: true})
	if err != nil {
		return nil, s.fail(op, err)
	}

	inv, err := env.set.Registry.GetInvoice(s.callOpts(ctx, env.account), tokenID)
	if err != nil {
		return nil, s.fail(op, &CallError{Op: "getInvoice", Err: err})
	}

	opts, err := s.transactor(ctx, env)
	if err != nil {
		return nil, s.fail(op, err)
	}
	opts.Value = new(big.Int).Set(inv.FaceValue)
	tx, err := env.set.Settle.Execute(opts, tokenID, true)
	if err != nil {
		return nil, s.fail(op, &CallError{Op: "repay", Err: err})
	}
	receipt, err := s.waitMined(ctx, env.backend, "repay", tx)
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.logger.Info("invoice repaid", "tokenId", tokenID, "hash", tx.Hash().Hex())
	s.record(TxRepay, tx.Hash(), tokenID, fmt.Sprintf("Repaid invoice #%s (%s)",
		tokenID, helpers.FormatAmount(inv.FaceValue, s.cfg.Network.Currency.Symbol)))
	s.notify(LevelSuccess, "Invoice #%s repaid", tokenID)
	return receipt, nil
}

// MarkAsDefaulted settles an invoice as defaulted. No payment is sent.
func (s *Session) MarkAsDefaulted(ctx context.Context, tokenID *big.Int) (*types.Receipt, error) {
	const op = "Mark as defaulted"

	env, err := s.writeEnv(need{settle: true})
	if err != nil {
		return nil, s.fail(op, err)
	}

	opts, err := s.transactor(ctx, env)
	if err != nil {
		return nil, s.fail(op, err)
	}
	tx, err := env.set.Settle.Execute(opts, tokenID, false)
	if err != nil {
		return nil, s.fail(op, &CallError{Op: "default", Err: err})
	}
	receipt, err := s.waitMined(ctx, env.backend, "default", tx)
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.logger.Info("invoice defaulted", "tokenId", tokenID, "hash", tx.Hash().Hex())
	s.record(TxDefault, tx.Hash(), tokenID, fmt.Sprintf("Marked invoice #%s as defaulted", tokenID))
	s.notify(LevelSuccess, "Invoice #%s marked as defaulted", tokenID)
	return receipt, nil
}

func (s *Session) callOpts(ctx context.Context, from common.Address) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: from}
}

// reader returns the registry and caller for read projections, or false when
// the session has no registry binding
func (s *Session) reader() (contracts.Registry, common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.bound || s.set.Registry == nil {
		return nil, common.Address{}, false
	}
	var from common.Address
	if s.account != nil {
		from = *s.account
	}
	return s.set.Registry, from, true
}

// GetInvoice reads one invoice. Failures are logged and reported as not found.
func (s *Session) GetInvoice(ctx context.Context, tokenID *big.Int) (contracts.Invoice, bool) {
	reg, from, ok := s.reader()
	if !ok {
		return contracts.Invoice{}, false
	}
	inv, err := reg.GetInvoice(s.callOpts(ctx, from), tokenID)
	if err != nil {
		s.logger.Warn("getInvoice failed", "tokenId", tokenID, "err", err)
		return contracts.Invoice{}, false
	}
	return inv, true
}

// GetInvoicesByStatus lists invoices in a lifecycle state
func (s *Session) GetInvoicesByStatus(ctx context.Context, status contracts.Status) []contracts.Invoice {
	return s.list(ctx, "getInvoicesByStatus", func(r contracts.Registry, o *bind.CallOpts) ([]*big.Int, error) {
		return r.GetInvoicesByStatus(o, status)
	})
}

// GetInvoicesByOwner lists invoices currently held by owner
func (s *Session) GetInvoicesByOwner(ctx context.Context, owner common.Address) []contracts.Invoice {
	return s.list(ctx, "getInvoicesByOwner", func(r contracts.Registry, o *bind.CallOpts) ([]*big.Int, error) {
		return r.GetInvoicesByOwner(o, owner)
	})
}

// GetInvoicesByClient lists invoices billed to client
func (s *Session) GetInvoicesByClient(ctx context.Context, client common.Address) []contracts.Invoice {
	return s.list(ctx, "getInvoicesByClient", func(r contracts.Registry, o *bind.CallOpts) ([]*big.Int, error) {
		return r.GetInvoicesByClient(o, client)
	})
}

// GetInvoicesBySME lists invoices issued by sme. Like its siblings it
// reports failures as an empty result.
func (s *Session) GetInvoicesBySME(ctx context.Context, sme common.Address) []contracts.Invoice {
	return s.list(ctx, "getInvoicesBySME", func(r contracts.Registry, o *bind.CallOpts) ([]*big.Int, error) {
		return r.GetInvoicesBySME(o, sme)
	})
}

func (s *Session) list(ctx context.Context, method string, ids func(contracts.Registry, *bind.CallOpts) ([]*big.Int, error)) []contracts.Invoice {
	reg, from, ok := s.reader()
	if !ok {
		s.logger.Debug("read skipped, no registry binding", "method", method)
		return []contracts.Invoice{}
	}

	tokenIDs, err := ids(reg, s.callOpts(ctx, from))
	if err != nil {
		s.logger.Warn(method+" failed", "err", err)
		return []contracts.Invoice{}
	}

	results := make([]*contracts.Invoice, len(tokenIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, id := range tokenIDs {
		g.Go(func() error {
			inv, err := reg.GetInvoice(s.callOpts(gctx, from), id)
			if err != nil {
				s.logger.Warn("skipping invoice", "tokenId", id, "err", err)
				return nil
			}
			results[i] = &inv
			return nil
		})
	}
	_ = g.Wait()

	out := make([]contracts.Invoice, 0, len(results))
	for _, inv := range results {
		if inv != nil {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Cmp(out[j].ID) < 0 })
	return out
}
