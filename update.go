package main

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"invoice-market-tui/config"
	"invoice-market-tui/contracts"
	"invoice-market-tui/helpers"
	"invoice-market-tui/session"
	"invoice-market-tui/views/client"
	"invoice-market-tui/views/detail"
	"invoice-market-tui/views/home"
	"invoice-market-tui/views/marketplace"
	"invoice-market-tui/views/portfolio"
	"invoice-market-tui/views/sme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
)

// maxToasts is how many notices are stacked on screen
const maxToasts = 3

// -------------------- UPDATE --------------------

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case logInitMsg:
		if !m.logEnabled {
			return m, nil
		}
		m.logReady = true
		m.addLog("info", "Logger enabled", "level", m.cfg.LogLevel)
		return m, nil

	case sessionChangeMsg:
		cmd := m.onSessionChange(session.Change(msg))
		return m, tea.Batch(cmd, waitForChange(m.changes))

	case walletActionMsg:
		switch {
		case errors.Is(msg.err, session.ErrConnectInProgress):
			m.addLog("info", "connect already pending")
		case msg.err != nil:
			m.addLog("error", msg.action+" failed", "err", msg.err)
		default:
			m.addLog("success", msg.action+" done", "state", m.sess.Snapshot().State)
		}
		return m, nil

	case invoicesLoadedMsg:
		m.onInvoicesLoaded(msg)
		return m, nil

	case invoiceLoadedMsg:
		if m.detailID == nil || msg.id.Cmp(m.detailID) != 0 {
			return m, nil
		}
		m.detailLoading = false
		m.detail = msg.invoice
		m.detailFound = msg.found
		return m, nil

	case txDoneMsg:
		m.busy = false
		m.busyLabel = ""
		if msg.err != nil {
			m.addLog("error", msg.op+" failed", "err", msg.err)
			return m, nil
		}
		m.addLog("success", msg.op+" confirmed", "tokenId", msg.tokenID)
		cmds := []tea.Cmd{m.loadPage()}
		if m.snap.HasAccount {
			cmds = append(cmds, loadBalance(m.provider, m.snap.Account))
		}
		return m, tea.Batch(cmds...)

	case balanceLoadedMsg:
		if msg.err != nil {
			m.addLog("debug", "balance unavailable", "err", msg.err)
			return m, nil
		}
		m.balance = msg.balance.Wei
		return m, nil

	case toastExpiredMsg:
		for i, t := range m.toasts {
			if t.ID == msg.id {
				m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
				break
			}
		}
		return m, nil

	case clipboardCopiedMsg:
		m.copiedMsg = "✓ Copied " + msg.what + " to clipboard"
		return m, clearClipboard()

	case clearClipboardMsg:
		m.copiedMsg = ""
		return m, nil

	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		if m.logEnabled {
			// width accounts for border and padding
			m.logViewport.Width = max(0, msg.Width-6)
			m.updateLogViewport()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		var cmds []tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		if m.logEnabled && !m.logReady {
			m.logSpinner, cmd = m.logSpinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if m.logEnabled && m.logReady {
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// anything else belongs to whichever form or input is active
	return m, m.forwardToActive(msg)
}

// forwardToActive passes a message to the focused form or input
func (m *model) forwardToActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.activePage == config.PageSME && m.tokenizeForm != nil:
		form, c := m.tokenizeForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.tokenizeForm = f
		}
		cmd = c
	case m.activePage == config.PageHome && m.homeForm != nil:
		form, c := m.homeForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.homeForm = f
		}
		cmd = c
	case m.searching:
		m.search, cmd = m.search.Update(msg)
	}
	return cmd
}

// onSessionChange folds an observer notification into the model
func (m *model) onSessionChange(c session.Change) tea.Cmd {
	prev := m.snap
	m.snap = m.sess.Snapshot()
	var cmds []tea.Cmd

	switch c.Kind {
	case session.ChangeNotice:
		if c.Notice != nil {
			cmds = append(cmds, m.pushToast(*c.Notice))
		}

	case session.ChangeHistory:
		m.historyIdx = 0

	case session.ChangeReload:
		m.addLog("warning", "network changed under a ready session, starting over")
		m.resetData()
		m.tokenizeForm = nil
		m.confirm = nil
		m.busy = false
		m.activePage = config.PageHome
		m.homeForm = m.createHomeForm()

	case session.ChangeState:
		accountChanged := prev.HasAccount && m.snap.HasAccount && prev.Account != m.snap.Account
		if m.snap.State == prev.State && !accountChanged {
			break
		}
		m.addLog("info", "session state changed", "from", prev.State, "to", m.snap.State)
		switch m.snap.State {
		case session.ConnectedReady:
			if accountChanged {
				m.resetData()
			}
			cmds = append(cmds, loadBalance(m.provider, m.snap.Account))
			if cmd := m.loadPage(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case session.ConnectedWrongNetwork:
			cmds = append(cmds, loadBalance(m.provider, m.snap.Account))
		case session.Disconnected:
			m.resetData()
			m.tokenizeForm = nil
		}
		if m.activePage == config.PageHome {
			m.homeForm = m.createHomeForm()
		}
	}
	return tea.Batch(cmds...)
}

// pushToast shows a notice and schedules its removal
func (m *model) pushToast(n session.Notice) tea.Cmd {
	m.toasts = append(m.toasts, n)
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	return expireToast(n.ID)
}

// localNotice raises a toast that did not come from the session
func (m *model) localNotice(level session.Level, message string) tea.Cmd {
	return m.pushToast(session.Notice{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		Time:    time.Now(),
	})
}

func (m *model) onInvoicesLoaded(msg invoicesLoadedMsg) {
	switch msg.page {
	case config.PageMarketplace:
		m.market, m.marketLoading = msg.invoices, false
		m.marketIdx = clamp(m.marketIdx, len(m.marketListings()))
	case config.PageSME:
		m.smeInvoices, m.smeLoading = msg.invoices, false
		m.smeIdx = clamp(m.smeIdx, len(m.smeInvoices))
	case config.PageClient:
		m.clientInvoices, m.clientLoading = msg.invoices, false
		m.clientIdx = clamp(m.clientIdx, len(m.clientInvoices))
	case config.PagePortfolio:
		m.owned, m.portfolioLoading = msg.invoices, false
		m.portfolioIdx = clamp(m.portfolioIdx, len(m.portfolioList()))
	}
	m.addLog("debug", "invoices loaded", "page", msg.page, "count", len(msg.invoices))
}

// -------------------- KEYS --------------------

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		return m, m.handleConfirmKey(msg)
	}

	if m.activePage == config.PageSME && m.tokenizeForm != nil {
		return m, m.handleTokenizeKey(msg)
	}

	if m.searching {
		switch msg.String() {
		case "esc":
			m.searching = false
			m.search.Blur()
			m.search.SetValue("")
			m.marketQuery.Search = ""
			m.marketIdx = 0
			return m, nil
		case "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.marketQuery.Search = m.search.Value()
		m.marketIdx = 0
		return m, cmd
	}

	// global keys
	switch msg.String() {
	case "ctrl+c", "q":
		m.savePrefs()
		return m, tea.Quit

	case "l", "L":
		m.logEnabled = !m.logEnabled
		m.savePrefs()
		if m.logEnabled {
			if m.w > 0 {
				m.logViewport.Width = m.w - 6
			}
			m.logReady = false
			return m, tea.Batch(initLogViewport(), m.logSpinner.Tick)
		}
		m.logSink.Reset()
		m.logReady = false
		return m, nil

	case "pgup", "pgdown":
		if m.logEnabled && m.logReady {
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case "C":
		if m.snap.State == session.Disconnected {
			return m, connectWallet(m.sess)
		}
		return m, nil

	case "D":
		if m.snap.State != session.Disconnected {
			m.sess.Disconnect()
			m.addLog("info", "wallet disconnected")
		}
		return m, nil

	case "K":
		// lock the local wallet; the session sees the account removed
		if l, ok := m.provider.(interface{ Lock() }); ok && m.snap.HasAccount {
			m.addLog("info", "locking wallet")
			l.Lock()
		}
		return m, nil

	case "N":
		if m.snap.State == session.ConnectedWrongNetwork {
			m.addLog("info", "switching network", "target", m.snap.TargetName)
			return m, switchNetwork(m.sess)
		}
		return m, nil

	case "1":
		return m, m.goTo(config.PageMarketplace)
	case "2":
		return m, m.goTo(config.PageSME)
	case "3":
		return m, m.goTo(config.PageClient)
	case "4":
		return m, m.goTo(config.PagePortfolio)
	case "5":
		return m, m.goTo(config.PageHistory)
	}

	switch m.activePage {
	case config.PageHome:
		return m, m.handleHomeKey(msg)
	case config.PageMarketplace:
		return m, m.handleMarketKey(msg)
	case config.PageDetail:
		return m, m.handleDetailKey(msg)
	case config.PageSME:
		return m, m.handleSMEKey(msg)
	case config.PageClient:
		return m, m.handleClientKey(msg)
	case config.PagePortfolio:
		return m, m.handlePortfolioKey(msg)
	case config.PageHistory:
		return m, m.handleHistoryKey(msg)
	}
	return m, nil
}

// goTo switches page and loads its data
func (m *model) goTo(page config.Page) tea.Cmd {
	m.activePage = page
	m.copiedMsg = ""
	m.showQR = false
	if page == config.PageHome {
		m.homeForm = m.createHomeForm()
	}
	m.savePrefs()
	return m.loadPage()
}

// openDetail shows one invoice, remembering where to return
func (m *model) openDetail(inv contracts.Invoice) tea.Cmd {
	m.detailFrom = m.activePage
	m.detailID = new(big.Int).Set(inv.ID)
	m.detail = inv
	m.detailFound = true
	m.activePage = config.PageDetail
	m.copiedMsg = ""
	return m.loadPage()
}

func (m *model) handleHomeKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "esc" {
		m.savePrefs()
		return tea.Quit
	}
	if m.homeForm == nil {
		m.homeForm = m.createHomeForm()
	}

	form, cmd := m.homeForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.homeForm = f
	}
	if m.homeForm.State != huh.StateCompleted {
		return cmd
	}

	choice := home.TempSelection
	m.homeForm = m.createHomeForm()
	switch choice {
	case home.ChoiceMarketplace:
		return m.goTo(config.PageMarketplace)
	case home.ChoiceSME:
		return m.goTo(config.PageSME)
	case home.ChoiceClient:
		return m.goTo(config.PageClient)
	case home.ChoicePortfolio:
		return m.goTo(config.PagePortfolio)
	case home.ChoiceHistory:
		return m.goTo(config.PageHistory)
	case home.ChoiceConnect:
		return connectWallet(m.sess)
	case home.ChoiceSwitch:
		return switchNetwork(m.sess)
	case home.ChoiceDisconnect:
		m.sess.Disconnect()
		m.addLog("info", "wallet disconnected")
	}
	return nil
}

func (m *model) handleMarketKey(msg tea.KeyMsg) tea.Cmd {
	listings := m.marketListings()
	switch msg.String() {
	case "esc":
		return m.goTo(config.PageHome)
	case "up", "k":
		if m.marketIdx > 0 {
			m.marketIdx--
		}
	case "down", "j":
		if m.marketIdx < len(listings)-1 {
			m.marketIdx++
		}
	case "enter":
		if m.marketIdx < len(listings) {
			return m.openDetail(listings[m.marketIdx])
		}
	case "/":
		m.searching = true
		return m.search.Focus()
	case "f":
		m.marketQuery.Filter = marketplace.NextFilter(m.marketQuery.Filter)
		m.marketIdx = 0
	case "o":
		m.marketQuery.Sort = marketplace.NextSort(m.marketQuery.Sort)
		m.marketIdx = 0
	case "r":
		return m.loadPage()
	}
	return nil
}

func (m *model) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		from := m.detailFrom
		if from == config.PageDetail {
			from = config.PageMarketplace
		}
		return m.goTo(from)
	case "r":
		return m.loadPage()
	case "c":
		if m.detailID != nil {
			return copyToClipboard(m.sess.TokenURL(m.detailID), "link")
		}
	case "b":
		if !m.detailFound || !m.snap.HasAccount {
			return nil
		}
		inv := m.detail
		if reason := helpers.PurchaseBlock(inv, m.account(), m.now()); reason != "" {
			return m.localNotice(session.LevelWarn, "Cannot buy: "+reason)
		}
		return m.ask(fmt.Sprintf("Buy invoice #%s for %s?", inv.IDString(), helpers.FormatAmount(inv.SalePrice, m.symbol())),
			"purchase", buyInvoice(m.sess, inv.ID))
	}
	return nil
}

func (m *model) handleSMEKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return m.goTo(config.PageHome)
	case "up", "k":
		if m.smeIdx > 0 {
			m.smeIdx--
		}
	case "down", "j":
		if m.smeIdx < len(m.smeInvoices)-1 {
			m.smeIdx++
		}
	case "enter":
		if m.smeIdx < len(m.smeInvoices) {
			return m.openDetail(m.smeInvoices[m.smeIdx])
		}
	case "r":
		return m.loadPage()
	case "t":
		if !m.ready() {
			return m.localNotice(session.LevelWarn, "Connect on "+m.snap.TargetName+" to tokenize invoices")
		}
		m.tokenizeForm = sme.CreateTokenizeForm(m.account())
	}
	return nil
}

func (m *model) handleTokenizeKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "esc" {
		m.tokenizeForm = nil
		return nil
	}

	form, cmd := m.tokenizeForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.tokenizeForm = f
	}

	switch m.tokenizeForm.State {
	case huh.StateCompleted:
		m.tokenizeForm = nil
		req, err := sme.BuildRequest(m.account(), m.now())
		if err != nil {
			m.addLog("warning", "tokenize form rejected", "err", err)
			return m.localNotice(session.LevelError, "Tokenize invoice: "+err.Error())
		}
		return m.ask(fmt.Sprintf("Tokenize a %s %s invoice for %s?", req.FaceValue, m.symbol(), helpers.ShortenAddr(req.Client)),
			"tokenize", tokenizeInvoice(m.sess, req))
	case huh.StateAborted:
		m.tokenizeForm = nil
		return nil
	}
	return cmd
}

func (m *model) handleClientKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return m.goTo(config.PageHome)
	case "up", "k":
		if m.clientIdx > 0 {
			m.clientIdx--
		}
	case "down", "j":
		if m.clientIdx < len(m.clientInvoices)-1 {
			m.clientIdx++
		}
	case "enter":
		if m.clientIdx < len(m.clientInvoices) {
			return m.openDetail(m.clientInvoices[m.clientIdx])
		}
	case "r":
		return m.loadPage()
	case "p":
		if m.clientIdx >= len(m.clientInvoices) {
			return nil
		}
		inv := m.clientInvoices[m.clientIdx]
		if !client.CanRepay(inv) {
			return m.localNotice(session.LevelWarn, fmt.Sprintf("Invoice #%s is %s", inv.IDString(), helpers.ClientLabel(inv.Status)))
		}
		return m.ask(fmt.Sprintf("Repay invoice #%s paying %s?", inv.IDString(), helpers.FormatAmount(inv.FaceValue, m.symbol())),
			"repayment", repayInvoice(m.sess, inv.ID))
	}
	return nil
}

func (m *model) handlePortfolioKey(msg tea.KeyMsg) tea.Cmd {
	list := m.portfolioList()
	switch msg.String() {
	case "esc":
		return m.goTo(config.PageHome)
	case "up", "k":
		if m.portfolioIdx > 0 {
			m.portfolioIdx--
		}
	case "down", "j":
		if m.portfolioIdx < len(list)-1 {
			m.portfolioIdx++
		}
	case "enter":
		if m.portfolioIdx < len(list) {
			return m.openDetail(list[m.portfolioIdx])
		}
	case "f":
		m.portfolioFilter = portfolio.NextFilter(m.portfolioFilter)
		m.portfolioIdx = 0
	case "r":
		return m.loadPage()
	case "x":
		if m.portfolioIdx >= len(list) {
			return nil
		}
		inv := list[m.portfolioIdx]
		if !portfolio.CanMarkDefault(inv, m.now()) {
			return m.localNotice(session.LevelWarn, fmt.Sprintf("Invoice #%s is not overdue", inv.IDString()))
		}
		return m.ask(fmt.Sprintf("Mark invoice #%s as defaulted?", inv.IDString()),
			"default", markDefaulted(m.sess, inv.ID))
	}
	return nil
}

func (m *model) handleHistoryKey(msg tea.KeyMsg) tea.Cmd {
	entries := m.sess.History().Entries()
	switch msg.String() {
	case "esc":
		return m.goTo(config.PageHome)
	case "up", "k":
		if m.historyIdx > 0 {
			m.historyIdx--
		}
	case "down", "j":
		if m.historyIdx < len(entries)-1 {
			m.historyIdx++
		}
	case "enter":
		m.showQR = !m.showQR
	case "c":
		if m.historyIdx < len(entries) {
			return copyToClipboard(entries[m.historyIdx].Hash, "hash")
		}
	case "u":
		if m.historyIdx < len(entries) {
			return copyToClipboard(entries[m.historyIdx].ExplorerURL, "link")
		}
	}
	return nil
}

// ask opens the confirmation dialog for a write operation
func (m *model) ask(question, label string, action tea.Cmd) tea.Cmd {
	if m.busy {
		return m.localNotice(session.LevelWarn, "Waiting for the pending "+m.busyLabel+" to confirm")
	}
	m.confirm = &confirmDialog{question: question, label: label, action: action}
	return nil
}

func (m *model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "right", "tab":
		m.confirm.yesSelected = !m.confirm.yesSelected
		return nil
	case "y", "Y":
		m.confirm.yesSelected = true
		fallthrough
	case "enter":
		c := m.confirm
		m.confirm = nil
		if !c.yesSelected {
			return nil
		}
		m.busy = true
		m.busyLabel = c.label
		m.addLog("info", "sending "+c.label)
		return tea.Batch(c.action, m.spin.Tick)
	case "esc", "n", "N":
		m.confirm = nil
	}
	return nil
}

// -------------------- DERIVED LISTS --------------------

func (m model) marketListings() []contracts.Invoice {
	return helpers.FilterMarket(m.market, m.marketQuery, m.now())
}

func (m model) investments() []contracts.Invoice {
	return helpers.Investments(m.owned)
}

func (m model) portfolioList() []contracts.Invoice {
	return helpers.FilterPortfolio(m.investments(), m.portfolioFilter)
}

// clamp keeps a cursor inside a list of n rows
func clamp(idx, n int) int {
	if idx >= n {
		idx = n - 1
	}
	return max(0, idx)
}

// canBuy reports whether the detail view offers the buy action
func (m model) canBuy() bool {
	return m.detailFound && m.snap.HasAccount && helpers.CanPurchase(m.detail, m.account(), m.now())
}

// detailParams is shared by View and tests
func (m model) detailParams() detail.Params {
	p := detail.Params{
		Invoice:   m.detail,
		Found:     m.detailFound,
		Loading:   m.detailLoading && !m.detailFound,
		Spinner:   m.spin.View(),
		Account:   m.account(),
		Now:       m.now(),
		Symbol:    m.symbol(),
		CopiedMsg: m.copiedMsg,
	}
	if m.detailID != nil {
		p.TokenURL = m.sess.TokenURL(m.detailID)
	}
	return p
}
