package contracts

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Status is the on-chain lifecycle state of an invoice
type Status uint8

const (
	StatusOnMarket Status = iota
	StatusSold
	StatusRepaid
	StatusDefaulted
)

// Statuses lists every known status in contract order
var Statuses = []Status{StatusOnMarket, StatusSold, StatusRepaid, StatusDefaulted}

func (s Status) String() string {
	switch s {
	case StatusOnMarket:
		return "OnMarket"
	case StatusSold:
		return "Sold"
	case StatusRepaid:
		return "Repaid"
	case StatusDefaulted:
		return "Defaulted"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// Known reports whether s is one of the four contract states
func (s Status) Known() bool {
	return s <= StatusDefaulted
}

// RawInvoice mirrors the getInvoice tuple. Field order must match the ABI.
type RawInvoice struct {
	Id           *big.Int
	Sme          common.Address
	Client       common.Address
	CurrentOwner common.Address
	FaceValue    *big.Int
	SalePrice    *big.Int
	DueDate      *big.Int
	CreatedAt    *big.Int
	Status       uint8
	MetadataURI  string
}

// Invoice is the typed read-only projection of an on-chain invoice record
type Invoice struct {
	ID          *big.Int
	SME         common.Address
	Client      common.Address
	Holder      common.Address
	FaceValue   *big.Int // wei
	SalePrice   *big.Int // wei
	DueDate     time.Time
	CreatedAt   time.Time
	Status      Status
	MetadataURI string
}

// Normalize converts the decoded contract tuple into an Invoice. Every read path goes through here.
func Normalize(raw RawInvoice) Invoice {
	return Invoice{
		ID:          orZero(raw.Id),
		SME:         raw.Sme,
		Client:      raw.Client,
		Holder:      raw.CurrentOwner,
		FaceValue:   orZero(raw.FaceValue),
		SalePrice:   orZero(raw.SalePrice),
		DueDate:     unixTime(raw.DueDate),
		CreatedAt:   unixTime(raw.CreatedAt),
		Status:      Status(raw.Status),
		MetadataURI: raw.MetadataURI,
	}
}

// Record validation errors
var (
	ErrSalePriceNotBelowFace = errors.New("sale price is not below face value")
	ErrZeroSalePrice         = errors.New("sale price is zero")
	ErrDueBeforeCreation     = errors.New("due date is not after creation")
	ErrUnknownStatus         = errors.New("unknown invoice status")
)

// Validate checks the invariants the contracts are supposed to enforce.
// Callers must not act on a record that fails here.
func (inv Invoice) Validate() error {
	if !inv.Status.Known() {
		return fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(inv.Status))
	}
	if inv.SalePrice == nil || inv.SalePrice.Sign() <= 0 {
		return ErrZeroSalePrice
	}
	if inv.FaceValue == nil || inv.SalePrice.Cmp(inv.FaceValue) >= 0 {
		return ErrSalePriceNotBelowFace
	}
	if !inv.DueDate.After(inv.CreatedAt) {
		return ErrDueBeforeCreation
	}
	return nil
}

// IDString returns the token id in decimal
func (inv Invoice) IDString() string {
	if inv.ID == nil {
		return "0"
	}
	return inv.ID.String()
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func unixTime(v *big.Int) time.Time {
	if v == nil || !v.IsInt64() {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0)
}
