package contracts

import (
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrNotInvoiceMinted is returned when a log is not an InvoiceMinted event
var ErrNotInvoiceMinted = errors.New("log is not an InvoiceMinted event")

// InvoiceMinted is the decoded mint-completion event
type InvoiceMinted struct {
	TokenID   *big.Int
	SME       common.Address
	Client    common.Address
	FaceValue *big.Int
	SalePrice *big.Int
	DueDate   *big.Int
}

// InvoiceMintedTopic is the event signature hash
func InvoiceMintedTopic() common.Hash {
	return mintABI.Events["InvoiceMinted"].ID
}

// ParseInvoiceMinted decodes an InvoiceMinted log
func ParseInvoiceMinted(l types.Log) (InvoiceMinted, error) {
	ev := mintABI.Events["InvoiceMinted"]
	if len(l.Topics) == 0 || l.Topics[0] != ev.ID {
		return InvoiceMinted{}, ErrNotInvoiceMinted
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	topics := make(map[string]interface{})
	if err := abi.ParseTopicsIntoMap(topics, indexed, l.Topics[1:]); err != nil {
		return InvoiceMinted{}, err
	}
	data := make(map[string]interface{})
	if err := mintABI.UnpackIntoMap(data, "InvoiceMinted", l.Data); err != nil {
		return InvoiceMinted{}, err
	}

	out := InvoiceMinted{}
	out.TokenID, _ = topics["tokenId"].(*big.Int)
	out.SME, _ = topics["sme"].(common.Address)
	out.Client, _ = topics["client"].(common.Address)
	out.FaceValue, _ = data["faceValue"].(*big.Int)
	out.SalePrice, _ = data["salePrice"].(*big.Int)
	out.DueDate, _ = data["dueDate"].(*big.Int)
	if out.TokenID == nil {
		return InvoiceMinted{}, ErrNotInvoiceMinted
	}
	return out, nil
}

// FindMinted scans receipt logs for an InvoiceMinted event emitted by the
// mint action contract itself. Logs from any other address are ignored.
func FindMinted(receipt *types.Receipt, mintAddress common.Address) (InvoiceMinted, bool) {
	if receipt == nil {
		return InvoiceMinted{}, false
	}
	for _, l := range receipt.Logs {
		if l == nil || !strings.EqualFold(l.Address.Hex(), mintAddress.Hex()) {
			continue
		}
		ev, err := ParseInvoiceMinted(*l)
		if err != nil {
			continue
		}
		return ev, true
	}
	return InvoiceMinted{}, false
}

// MintedLog builds the log an InvoiceMinted emission produces
func MintedLog(emitter common.Address, ev InvoiceMinted) (*types.Log, error) {
	data, err := mintABI.Events["InvoiceMinted"].Inputs.NonIndexed().Pack(ev.FaceValue, ev.SalePrice, ev.DueDate)
	if err != nil {
		return nil, err
	}
	return &types.Log{
		Address: emitter,
		Topics: []common.Hash{
			InvoiceMintedTopic(),
			common.BigToHash(ev.TokenID),
			common.BytesToHash(ev.SME.Bytes()),
			common.BytesToHash(ev.Client.Bytes()),
		},
		Data: data,
	}, nil
}
