package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// InvoiceNFT registry. getInvoice returns the full record, the list views return token ids.
const RegistryABI = `[
	{"type":"function","name":"getInvoice","stateMutability":"view",
	 "inputs":[{"name":"tokenId","type":"uint256"}],
	 "outputs":[{"name":"","type":"tuple","components":[
		{"name":"id","type":"uint256"},
		{"name":"sme","type":"address"},
		{"name":"client","type":"address"},
		{"name":"currentOwner","type":"address"},
		{"name":"faceValue","type":"uint256"},
		{"name":"salePrice","type":"uint256"},
		{"name":"dueDate","type":"uint256"},
		{"name":"createdAt","type":"uint256"},
		{"name":"status","type":"uint8"},
		{"name":"metadataURI","type":"string"}]}]},
	{"type":"function","name":"getInvoicesByStatus","stateMutability":"view",
	 "inputs":[{"name":"status","type":"uint8"}],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"getInvoicesByOwner","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"getInvoicesByClient","stateMutability":"view",
	 "inputs":[{"name":"client","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"getInvoicesBySME","stateMutability":"view",
	 "inputs":[{"name":"sme","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"supportsInterface","stateMutability":"view",
	 "inputs":[{"name":"interfaceId","type":"bytes4"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"InvoiceTokenized","anonymous":false,"inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},
		{"name":"sme","type":"address","indexed":true},
		{"name":"client","type":"address","indexed":true}]}
]`

// MintInvoiceAction
const MintActionABI = `[
	{"type":"function","name":"execute","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"owner","type":"address"},
		{"name":"client","type":"address"},
		{"name":"faceValue","type":"uint256"},
		{"name":"salePrice","type":"uint256"},
		{"name":"dueDate","type":"uint256"},
		{"name":"uri","type":"string"}],
	 "outputs":[{"name":"tokenId","type":"uint256"}]},
	{"type":"event","name":"InvoiceMinted","anonymous":false,"inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},
		{"name":"sme","type":"address","indexed":true},
		{"name":"client","type":"address","indexed":true},
		{"name":"faceValue","type":"uint256","indexed":false},
		{"name":"salePrice","type":"uint256","indexed":false},
		{"name":"dueDate","type":"uint256","indexed":false}]}
]`

// PurchaseInvoiceAction
const PurchaseActionABI = `[
	{"type":"function","name":"execute","stateMutability":"payable",
	 "inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
	{"type":"event","name":"InvoicePurchased","anonymous":false,"inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},
		{"name":"investor","type":"address","indexed":true},
		{"name":"price","type":"uint256","indexed":false}]}
]`

// SettleInvoiceAction
const SettleActionABI = `[
	{"type":"function","name":"execute","stateMutability":"payable",
	 "inputs":[{"name":"tokenId","type":"uint256"},{"name":"isRepayment","type":"bool"}],"outputs":[]},
	{"type":"event","name":"InvoiceSettled","anonymous":false,"inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},
		{"name":"isRepayment","type":"bool","indexed":false}]}
]`

// ERC721InterfaceID is the ERC-165 id of ERC-721
var ERC721InterfaceID = [4]byte{0x80, 0xac, 0x58, 0xcd}

var (
	registryABI = mustParse(RegistryABI)
	mintABI     = mustParse(MintActionABI)
	purchaseABI = mustParse(PurchaseActionABI)
	settleABI   = mustParse(SettleActionABI)
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("contracts: invalid ABI: " + err.Error())
	}
	return parsed
}
