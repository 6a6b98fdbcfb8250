package main

import (
	"math/big"

	"invoice-market-tui/config"
	"invoice-market-tui/contracts"
	"invoice-market-tui/rpc"
	"invoice-market-tui/session"
)

// -------------------- TEA MESSAGES --------------------
// All custom message types for The Elm Architecture

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct {
	what string
}

// clearClipboardMsg clears the copy feedback
type clearClipboardMsg struct{}

// logInitMsg signals that log viewport should be initialized
type logInitMsg struct{}

// sessionChangeMsg carries a session observer callback into the update loop
type sessionChangeMsg session.Change

// walletActionMsg is the result of connect or network switch
type walletActionMsg struct {
	action string
	err    error
}

// invoicesLoadedMsg carries a list projection for a page
type invoicesLoadedMsg struct {
	page     config.Page
	invoices []contracts.Invoice
}

// invoiceLoadedMsg carries a single invoice for the detail view
type invoiceLoadedMsg struct {
	id      *big.Int
	invoice contracts.Invoice
	found   bool
}

// txDoneMsg is the result of a write operation
type txDoneMsg struct {
	op      string
	tokenID *big.Int
	err     error
}

// balanceLoadedMsg contains the connected account balance
type balanceLoadedMsg struct {
	balance rpc.AccountBalance
	err     error
}

// toastExpiredMsg removes a notice from the screen
type toastExpiredMsg struct {
	id string
}
