package session

import (
	"math/big"
	"sync"
	"time"
)

// TxType classifies a history entry
type TxType string

const (
	TxMint     TxType = "MINT"
	TxPurchase TxType = "PURCHASE"
	TxRepay    TxType = "REPAY"
	TxDefault  TxType = "DEFAULT"
)

// Entry is one confirmed transaction
type Entry struct {
	Hash        string
	Type        TxType
	Description string
	InvoiceID   *big.Int // nil when not tied to an invoice
	CreatedAt   time.Time
	ExplorerURL string
}

// History is the in-memory transaction log, most recent first. It lives as
// long as the session object and is never persisted.
type History struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewHistory() *History {
	return &History{}
}

// Add prepends e
func (h *History) Add(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append([]Entry{e}, h.entries...)
}

// Entries returns a copy, most recent first
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}
