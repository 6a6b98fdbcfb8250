package session

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-market-tui/contracts"
)

func readyHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, 5003, testConfig())
	require.NoError(t, h.s.Connect(context.Background()))
	require.Equal(t, ConnectedReady, h.s.Snapshot().State)
	return h
}

func tokenizeRequest() TokenizeRequest {
	return TokenizeRequest{
		Client:    clientAdr.Hex(),
		FaceValue: "100",
		SalePrice: "92.5",
		DueDate:   testNow.Add(60 * 24 * time.Hour),
	}
}

func TestTokenizeInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		h := readyHarness(t)
		h.mint.nextID = 42

		id, err := h.s.TokenizeInvoice(ctx, tokenizeRequest())
		require.NoError(t, err)
		assert.Equal(t, int64(42), id.Int64())
		assert.Equal(t, 0, eth(100).Cmp(h.mint.lastFace))
		assert.True(t, strings.HasPrefix(h.mint.lastURI, "ipfs://invoice-"), h.mint.lastURI)

		entries := h.s.History().Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, TxMint, entries[0].Type)
		assert.Equal(t, int64(42), entries[0].InvoiceID.Int64())
		assert.Equal(t, "https://sepolia.mantlescan.xyz/tx/"+entries[0].Hash, entries[0].ExplorerURL)
		assert.Equal(t, 1, h.changes.count(ChangeHistory))
		assert.Len(t, h.changes.notices(LevelSuccess), 2)
	})

	t.Run("explicit metadata uri", func(t *testing.T) {
		h := readyHarness(t)
		req := tokenizeRequest()
		req.MetadataURI = "ipfs://bafy"
		_, err := h.s.TokenizeInvoice(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "ipfs://bafy", h.mint.lastURI)
	})

	t.Run("event from another contract", func(t *testing.T) {
		h := readyHarness(t)
		h.mint.emitter = common.HexToAddress("0x9999999999999999999999999999999999999999")

		_, err := h.s.TokenizeInvoice(ctx, tokenizeRequest())
		assert.ErrorIs(t, err, ErrMintEventNotFound)
		assert.Equal(t, 1, h.mint.calls, "the transaction itself went through")
		assert.Zero(t, h.s.History().Len())
		assert.Len(t, h.changes.notices(LevelError), 1)
	})

	t.Run("reverted", func(t *testing.T) {
		h := readyHarness(t)
		h.mint.status = types.ReceiptStatusFailed

		_, err := h.s.TokenizeInvoice(ctx, tokenizeRequest())
		assert.ErrorIs(t, err, ErrContractCallReverted)
		var callErr *CallError
		require.True(t, errors.As(err, &callErr))
		assert.Equal(t, "mint", callErr.Op)
	})

	t.Run("missing mint binding", func(t *testing.T) {
		cfg := testConfig()
		cfg.Contracts.Mint = ""
		h := newHarness(t, 5003, cfg)
		require.NoError(t, h.s.Connect(ctx))

		_, err := h.s.TokenizeInvoice(ctx, tokenizeRequest())
		assert.ErrorIs(t, err, ErrContractsNotInitialized)
		assert.Zero(t, h.mint.calls)
	})

	t.Run("missing registry binding", func(t *testing.T) {
		cfg := testConfig()
		cfg.Contracts.Registry = ""
		h := newHarness(t, 5003, cfg)
		require.NoError(t, h.s.Connect(ctx))

		_, err := h.s.TokenizeInvoice(ctx, tokenizeRequest())
		assert.ErrorIs(t, err, ErrContractsNotInitialized)
		assert.Contains(t, err.Error(), "registry")
		assert.Zero(t, h.mint.calls)
	})

	t.Run("disconnected", func(t *testing.T) {
		h := newHarness(t, 5003, testConfig())
		_, err := h.s.TokenizeInvoice(ctx, tokenizeRequest())
		assert.ErrorIs(t, err, ErrContractsNotInitialized)
		assert.NotErrorIs(t, err, ErrWrongNetwork)
	})

	t.Run("invalid input", func(t *testing.T) {
		h := readyHarness(t)

		req := tokenizeRequest()
		req.FaceValue = "1.0000000000000000001"
		_, err := h.s.TokenizeInvoice(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		req = tokenizeRequest()
		req.SalePrice = "-5"
		_, err = h.s.TokenizeInvoice(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		req = tokenizeRequest()
		req.Client = "0x123"
		_, err = h.s.TokenizeInvoice(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidClient)

		assert.Zero(t, h.mint.calls)
	})

	t.Run("client without 0x prefix", func(t *testing.T) {
		h := readyHarness(t)
		req := tokenizeRequest()
		req.Client = strings.TrimPrefix(clientAdr.Hex(), "0x")

		_, err := h.s.TokenizeInvoice(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 1, h.mint.calls)
	})
}

func TestBuyInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("self purchase rejected regardless of status", func(t *testing.T) {
		for _, status := range contracts.Statuses {
			h := readyHarness(t)
			inv := listing(1, status)
			inv.SME = common.HexToAddress(strings.ToLower(investor.Hex()))
			h.registry.put(inv)

			_, err := h.s.BuyInvoice(ctx, big.NewInt(1))
			assert.ErrorIs(t, err, ErrSelfPurchaseRejected, status.String())
			assert.Zero(t, h.purchase.calls)
		}
	})

	t.Run("not for sale", func(t *testing.T) {
		for _, status := range []contracts.Status{contracts.StatusSold, contracts.StatusRepaid, contracts.StatusDefaulted} {
			h := readyHarness(t)
			h.registry.put(listing(1, status))

			_, err := h.s.BuyInvoice(ctx, big.NewInt(1))
			assert.ErrorIs(t, err, ErrInvoiceNotForSale)
			assert.Contains(t, err.Error(), status.String())
			assert.Zero(t, h.purchase.calls)
		}
	})

	t.Run("on market", func(t *testing.T) {
		h := readyHarness(t)
		h.registry.put(listing(7, contracts.StatusOnMarket))

		receipt, err := h.s.BuyInvoice(ctx, big.NewInt(7))
		require.NoError(t, err)
		require.NotNil(t, receipt)
		assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
		assert.Equal(t, 1, h.purchase.calls)
		assert.Equal(t, 0, eth(90).Cmp(h.purchase.lastValue), "pays the sale price")

		entries := h.s.History().Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, TxPurchase, entries[0].Type)
		assert.Equal(t, receipt.TxHash.Hex(), entries[0].Hash)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		h := readyHarness(t)
		h.registry.put(listing(1, contracts.StatusOnMarket))
		h.provider.backend.balance = eth(10)

		_, err := h.s.BuyInvoice(ctx, big.NewInt(1))
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Zero(t, h.purchase.calls)
	})

	t.Run("invalid record", func(t *testing.T) {
		h := readyHarness(t)
		inv := listing(1, contracts.StatusOnMarket)
		inv.SalePrice = eth(150)
		h.registry.put(inv)

		_, err := h.s.BuyInvoice(ctx, big.NewInt(1))
		assert.ErrorIs(t, err, ErrInvalidInvoice)
		assert.ErrorIs(t, err, contracts.ErrSalePriceNotBelowFace)
	})

	t.Run("contract rejects despite pre-checks", func(t *testing.T) {
		h := readyHarness(t)
		h.registry.put(listing(1, contracts.StatusOnMarket))
		h.purchase.status = types.ReceiptStatusFailed

		_, err := h.s.BuyInvoice(ctx, big.NewInt(1))
		assert.ErrorIs(t, err, ErrContractCallReverted)
		assert.Zero(t, h.s.History().Len())
	})

	t.Run("unknown invoice", func(t *testing.T) {
		h := readyHarness(t)
		_, err := h.s.BuyInvoice(ctx, big.NewInt(404))
		assert.ErrorIs(t, err, ErrContractCallReverted)
	})
}

func TestSettlement(t *testing.T) {
	ctx := context.Background()
	h := readyHarness(t)
	h.registry.put(listing(1, contracts.StatusSold))
	h.registry.put(listing(2, contracts.StatusSold))

	_, err := h.s.RepayInvoice(ctx, big.NewInt(1))
	require.NoError(t, err)
	assert.True(t, h.settle.lastRepay)
	assert.Equal(t, 0, eth(100).Cmp(h.settle.lastValue), "repays the face value")

	_, err = h.s.MarkAsDefaulted(ctx, big.NewInt(2))
	require.NoError(t, err)
	assert.False(t, h.settle.lastRepay)
	assert.Nil(t, h.settle.lastValue, "default sends no payment")

	entries := h.s.History().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, TxDefault, entries[0].Type, "most recent first")
	assert.Equal(t, TxRepay, entries[1].Type)
	assert.Equal(t, int64(2), entries[0].InvoiceID.Int64())
}

func TestReads(t *testing.T) {
	ctx := context.Background()

	t.Run("lists are sorted and skip failed records", func(t *testing.T) {
		h := readyHarness(t)
		for i := int64(1); i <= 12; i++ {
			h.registry.put(listing(i, contracts.StatusOnMarket))
		}
		h.registry.failing["5"] = true

		got := h.s.GetInvoicesByStatus(ctx, contracts.StatusOnMarket)
		require.Len(t, got, 11)
		for i := 1; i < len(got); i++ {
			assert.Equal(t, -1, got[i-1].ID.Cmp(got[i].ID))
		}
		for _, inv := range got {
			assert.NotEqual(t, int64(5), inv.ID.Int64())
		}

		assert.Len(t, h.s.GetInvoicesByOwner(ctx, investor), 11)
		assert.Len(t, h.s.GetInvoicesByClient(ctx, clientAdr), 11)
		assert.Len(t, h.s.GetInvoicesBySME(ctx, smeAddr), 11)
	})

	t.Run("list failures are swallowed", func(t *testing.T) {
		h := readyHarness(t)
		h.registry.listErr = errors.New("rpc down")

		assert.Empty(t, h.s.GetInvoicesByStatus(ctx, contracts.StatusOnMarket))
		assert.Empty(t, h.s.GetInvoicesByOwner(ctx, investor))
		assert.Empty(t, h.s.GetInvoicesByClient(ctx, clientAdr))
		assert.Empty(t, h.s.GetInvoicesBySME(ctx, smeAddr))
	})

	t.Run("single invoice", func(t *testing.T) {
		h := readyHarness(t)
		h.registry.put(listing(3, contracts.StatusSold))

		inv, ok := h.s.GetInvoice(ctx, big.NewInt(3))
		require.True(t, ok)
		assert.Equal(t, contracts.StatusSold, inv.Status)

		_, ok = h.s.GetInvoice(ctx, big.NewInt(4))
		assert.False(t, ok)
	})

	t.Run("no bindings", func(t *testing.T) {
		h := newHarness(t, 1, testConfig())
		require.NoError(t, h.s.Connect(ctx))

		_, ok := h.s.GetInvoice(ctx, big.NewInt(1))
		assert.False(t, ok)
		got := h.s.GetInvoicesByStatus(ctx, contracts.StatusOnMarket)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
