package session

import (
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryOrder(t *testing.T) {
	h := NewHistory()
	h.Add(Entry{Hash: "0x01", Type: TxMint, InvoiceID: big.NewInt(1)})
	h.Add(Entry{Hash: "0x02", Type: TxPurchase, InvoiceID: big.NewInt(1)})
	h.Add(Entry{Hash: "0x03", Type: TxRepay})

	entries := h.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "0x03", entries[0].Hash)
	assert.Equal(t, "0x01", entries[2].Hash)

	// callers get a copy
	entries[0].Hash = "changed"
	assert.Equal(t, "0x03", h.Entries()[0].Hash)

	h.Clear()
	assert.Zero(t, h.Len())
	assert.Empty(t, h.Entries())
}

func TestHistoryConcurrentAdd(t *testing.T) {
	h := NewHistory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Add(Entry{Hash: fmt.Sprintf("0x%02x", i), Type: TxDefault})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, h.Len())
}
