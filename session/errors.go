package session

import (
	"errors"

	"invoice-market-tui/helpers"
)

var (
	ErrWalletNotInstalled      = errors.New("no wallet available: set WALLET_PRIVATE_KEY or WALLET_KEYSTORE")
	ErrNoAccountsGranted       = errors.New("wallet did not grant any account")
	ErrConnectInProgress       = errors.New("a connect request is already pending")
	ErrWrongNetwork            = errors.New("wallet is on the wrong network")
	ErrContractsNotInitialized = errors.New("contracts not initialized")
	ErrContractsNotConfigured  = errors.New("contract addresses missing from configuration")
	ErrSelfPurchaseRejected    = errors.New("cannot purchase your own invoice")
	ErrInvoiceNotForSale       = errors.New("invoice is not for sale")
	ErrInvalidInvoice          = errors.New("invoice record failed validation")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrMintEventNotFound       = errors.New("mint event not found in transaction receipt")
	ErrInvalidClient           = errors.New("invalid client address")
	ErrContractCallReverted    = errors.New("contract call failed")

	ErrInvalidAmount = helpers.ErrInvalidAmount
)

// CallError is a failure surfaced by a contract call, a transaction
// submission or a receipt wait. It matches ErrContractCallReverted.
type CallError struct {
	Op  string
	Err error
}

func (e *CallError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func (e *CallError) Is(target error) bool {
	return target == ErrContractCallReverted
}
