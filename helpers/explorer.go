package helpers

import (
	"fmt"
	"strings"
)

// DefaultExplorer is Mantle Sepolia, used for unknown chains
const DefaultExplorer = "https://sepolia.mantlescan.xyz"

// ExplorerBaseURL maps a chain id to its block explorer
func ExplorerBaseURL(chainID uint64) string {
	switch chainID {
	case 5003:
		return DefaultExplorer
	case 747:
		return "https://flowscan.org"
	case 545, 646:
		return "https://evm-testnet.flowscan.io"
	default:
		return DefaultExplorer
	}
}

// TransactionURL returns the explorer page of a transaction
func TransactionURL(hash string, chainID uint64) string {
	return ExplorerBaseURL(chainID) + "/tx/" + hash
}

// AddressURL returns the explorer page of an address
func AddressURL(address string, chainID uint64) string {
	return ExplorerBaseURL(chainID) + "/address/" + address
}

// TokenURL returns the explorer page of one token of an NFT contract
func TokenURL(contract, tokenID string, chainID uint64) string {
	return ExplorerBaseURL(chainID) + "/token/" + contract + "?a=" + tokenID
}

// JoinExplorer builds a path under an explicit explorer base
func JoinExplorer(base, kind, value string) string {
	return strings.TrimRight(base, "/") + "/" + kind + "/" + value
}

// FormatTxHash shortens a hash to 0x1234...abcd
func FormatTxHash(hash string) string {
	if hash == "" {
		return ""
	}
	if len(hash) < 10 {
		return hash
	}
	return hash[:6] + "..." + hash[len(hash)-4:]
}

// IsSupportedNetwork reports whether the marketplace is deployed on chainID
func IsSupportedNetwork(chainID uint64) bool {
	switch chainID {
	case 747, 646, 545, 5003:
		return true
	}
	return false
}

// NetworkName returns a display name for a chain id
func NetworkName(chainID uint64) string {
	switch chainID {
	case 5003:
		return "Mantle Sepolia"
	case 747:
		return "Flow EVM Mainnet"
	case 646, 545:
		return "Flow EVM Testnet"
	case 1337:
		return "Hardhat Local"
	case 1:
		return "Ethereum Mainnet"
	default:
		return fmt.Sprintf("Unknown Network (%d)", chainID)
	}
}
