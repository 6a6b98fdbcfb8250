package main

import (
	"context"
	"math/big"
	"time"

	"invoice-market-tui/config"
	"invoice-market-tui/contracts"
	"invoice-market-tui/rpc"
	"invoice-market-tui/session"
	"invoice-market-tui/views/home"
	"invoice-market-tui/wallet"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

// readTimeout bounds list and detail reads
const readTimeout = 30 * time.Second

// toastTTL is how long a notice stays on screen
const toastTTL = 5 * time.Second

// waitForChange delivers the next session change to the update loop
func waitForChange(f *changeFeed) tea.Cmd {
	return func() tea.Msg {
		return sessionChangeMsg(f.next())
	}
}

// initLogViewport initializes the log viewport
func initLogViewport() tea.Cmd {
	return func() tea.Msg {
		return logInitMsg{}
	}
}

// connectWallet requests accounts and binds the contracts
func connectWallet(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return walletActionMsg{action: "connect", err: s.Connect(context.Background())}
	}
}

// switchNetwork asks the wallet to move to the target chain
func switchNetwork(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return walletActionMsg{action: "switch", err: s.SwitchNetwork(context.Background())}
	}
}

// loadBalance reads the native balance of the connected account
func loadBalance(p wallet.Provider, addr common.Address) tea.Cmd {
	return func() tea.Msg {
		if p == nil {
			return balanceLoadedMsg{err: rpc.ErrNoClient}
		}
		var reader rpc.BalanceReader
		if b := p.Backend(); b != nil {
			reader = b
		}
		b, err := rpc.LoadBalance(reader, addr)
		return balanceLoadedMsg{balance: b, err: err}
	}
}

// loadInvoices runs the list projection a page shows
func loadInvoices(s *session.Session, page config.Page, account common.Address) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()

		var invoices []contracts.Invoice
		switch page {
		case config.PageMarketplace:
			invoices = s.GetInvoicesByStatus(ctx, contracts.StatusOnMarket)
		case config.PageSME:
			invoices = s.GetInvoicesBySME(ctx, account)
		case config.PageClient:
			invoices = s.GetInvoicesByClient(ctx, account)
		case config.PagePortfolio:
			invoices = s.GetInvoicesByOwner(ctx, account)
		}
		return invoicesLoadedMsg{page: page, invoices: invoices}
	}
}

// loadInvoice reads one invoice for the detail view
func loadInvoice(s *session.Session, id *big.Int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		inv, ok := s.GetInvoice(ctx, id)
		return invoiceLoadedMsg{id: id, invoice: inv, found: ok}
	}
}

// tokenizeInvoice mints an invoice
func tokenizeInvoice(s *session.Session, req session.TokenizeRequest) tea.Cmd {
	return func() tea.Msg {
		id, err := s.TokenizeInvoice(context.Background(), req)
		return txDoneMsg{op: "tokenize", tokenID: id, err: err}
	}
}

// buyInvoice purchases an invoice at its sale price
func buyInvoice(s *session.Session, id *big.Int) tea.Cmd {
	return func() tea.Msg {
		_, err := s.BuyInvoice(context.Background(), id)
		return txDoneMsg{op: "buy", tokenID: id, err: err}
	}
}

// repayInvoice pays an invoice's face value
func repayInvoice(s *session.Session, id *big.Int) tea.Cmd {
	return func() tea.Msg {
		_, err := s.RepayInvoice(context.Background(), id)
		return txDoneMsg{op: "repay", tokenID: id, err: err}
	}
}

// markDefaulted settles an overdue invoice as defaulted
func markDefaulted(s *session.Session, id *big.Int) tea.Cmd {
	return func() tea.Msg {
		_, err := s.MarkAsDefaulted(context.Background(), id)
		return txDoneMsg{op: "default", tokenID: id, err: err}
	}
}

// copyToClipboard copies text to clipboard
func copyToClipboard(text, what string) tea.Cmd {
	return func() tea.Msg {
		err := clipboard.WriteAll(text)
		if err == nil {
			return clipboardCopiedMsg{what: what}
		}
		return nil
	}
}

// clearClipboard waits 2 seconds then clears clipboard feedback
func clearClipboard() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return clearClipboardMsg{}
	})
}

// expireToast removes a notice after toastTTL
func expireToast(id string) tea.Cmd {
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// -------------------- MODEL HELPER METHODS --------------------

// addLog adds a log entry with its type
func (m *model) addLog(logType, message string, keyvals ...interface{}) {
	if m.logger == nil {
		return
	}

	switch logType {
	case "success":
		m.logger.Info("✓ "+message, keyvals...)
	case "error":
		m.logger.Error(message, keyvals...)
	case "warning":
		m.logger.Warn(message, keyvals...)
	case "debug":
		m.logger.Debug(message, keyvals...)
	default:
		m.logger.Info(message, keyvals...)
	}

	m.updateLogViewport()
}

// updateLogViewport refreshes the viewport content with log output
func (m *model) updateLogViewport() {
	if !m.logEnabled || !m.logReady || m.logSink == nil {
		return
	}
	m.logViewport.SetContent(m.logSink.String())
	m.logViewport.GotoBottom()
}

// textInputActive returns true if any text input is currently active
func (m model) textInputActive() bool {
	if m.searching {
		return true
	}
	if m.activePage == config.PageSME && m.tokenizeForm != nil {
		return true
	}
	return false
}

// createHomeForm builds the home menu for the current session state
func (m model) createHomeForm() *huh.Form {
	return home.CreateForm(m.snap)
}

// loadPage fetches whatever the active page shows
func (m *model) loadPage() tea.Cmd {
	switch m.activePage {
	case config.PageMarketplace:
		if !m.ready() {
			return nil
		}
		m.marketLoading = true
	case config.PageSME:
		if !m.ready() {
			return nil
		}
		m.smeLoading = true
	case config.PageClient:
		if !m.ready() {
			return nil
		}
		m.clientLoading = true
	case config.PagePortfolio:
		if !m.ready() {
			return nil
		}
		m.portfolioLoading = true
	case config.PageDetail:
		if m.detailID == nil || !m.ready() {
			return nil
		}
		m.detailLoading = true
		return loadInvoice(m.sess, m.detailID)
	default:
		return nil
	}
	return loadInvoices(m.sess, m.activePage, m.snap.Account)
}

// resetData drops every list read under a previous session
func (m *model) resetData() {
	m.market, m.smeInvoices, m.clientInvoices, m.owned = nil, nil, nil, nil
	m.marketIdx, m.smeIdx, m.clientIdx, m.portfolioIdx, m.historyIdx = 0, 0, 0, 0, 0
	m.detailID, m.detailFound = nil, false
	m.balance = nil
	m.showQR = false
}
