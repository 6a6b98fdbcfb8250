package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment keys
const (
	KeyRegistryAddress = "CONTRACT_ADDRESS"
	KeyMintAddress     = "MINT_ACTION_ADDRESS"
	KeyPurchaseAddress = "PURCHASE_ACTION_ADDRESS"
	KeySettleAddress   = "SETTLE_ACTION_ADDRESS"
	KeyChainID         = "CHAIN_ID"
	KeyNetworkName     = "NETWORK_NAME"
	KeyRPCURL          = "RPC_URL"
	KeyExplorerURL     = "EXPLORER_URL"
	KeyCurrencyName    = "CURRENCY_NAME"
	KeyCurrencySymbol  = "CURRENCY_SYMBOL"
	KeyPrivateKey      = "WALLET_PRIVATE_KEY"
	KeyKeystore        = "WALLET_KEYSTORE"
	KeyKeystorePass    = "WALLET_PASSWORD"
	KeyWalletNetworks  = "WALLET_NETWORKS"
	KeyLogLevel        = "LOG_LEVEL"
	KeyReceiptTimeout  = "RECEIPT_TIMEOUT"
	KeyStrictContracts = "STRICT_CONTRACTS"
	KeyPrefsPath       = "PREFS_PATH"
)

// Defaults for the target network
const (
	DefaultChainID        = 5003
	DefaultNetworkName    = "Mantle Sepolia"
	DefaultRPCURL         = "https://rpc.sepolia.mantle.xyz"
	DefaultCurrencyName   = "Mantle"
	DefaultCurrencySymbol = "MNT"
	DefaultReceiptTimeout = 2 * time.Minute
)

// Config is the application configuration resolved from the environment
type Config struct {
	Network         Network
	Contracts       Contracts
	Wallet          Wallet
	LogLevel        log.Level
	ReceiptTimeout  time.Duration
	StrictContracts bool
	PrefsPath       string
}

// Network describes the target chain the marketplace contracts live on
type Network struct {
	ChainID     uint64
	Name        string
	RPCURL      string
	ExplorerURL string // empty means derived from the chain id
	Currency    Currency
}

// Currency is the native currency metadata sent with an add-chain request
type Currency struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// Contracts holds the deployed contract addresses
type Contracts struct {
	Registry string
	Mint     string
	Purchase string
	Settle   string
}

// Wallet holds the local signing key source and additional known chains
type Wallet struct {
	PrivateKey       string
	KeystorePath     string
	KeystorePassword string
	Networks         []NetworkEntry
}

// NetworkEntry is an extra chain the local wallet knows how to reach
type NetworkEntry struct {
	ChainID uint64
	RPCURL  string
}

// Load reads the .env files (missing ones are ignored) and resolves the configuration
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("godotenv.Load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(KeyChainID, DefaultChainID)
	v.SetDefault(KeyNetworkName, DefaultNetworkName)
	v.SetDefault(KeyRPCURL, DefaultRPCURL)
	v.SetDefault(KeyCurrencyName, DefaultCurrencyName)
	v.SetDefault(KeyCurrencySymbol, DefaultCurrencySymbol)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyReceiptTimeout, DefaultReceiptTimeout)
	v.SetDefault(KeyStrictContracts, false)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	chainID, err := strconv.ParseUint(strings.TrimSpace(v.GetString(KeyChainID)), 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s %q: %w", KeyChainID, v.GetString(KeyChainID), err)
	}

	level, err := log.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		level = log.InfoLevel
	}

	networks, err := parseNetworkList(v.GetString(KeyWalletNetworks))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyWalletNetworks, err)
	}

	timeout := v.GetDuration(KeyReceiptTimeout)
	if timeout <= 0 {
		timeout = DefaultReceiptTimeout
	}

	return Config{
		Network: Network{
			ChainID:     chainID,
			Name:        v.GetString(KeyNetworkName),
			RPCURL:      v.GetString(KeyRPCURL),
			ExplorerURL: v.GetString(KeyExplorerURL),
			Currency: Currency{
				Name:     v.GetString(KeyCurrencyName),
				Symbol:   v.GetString(KeyCurrencySymbol),
				Decimals: 18,
			},
		},
		Contracts: Contracts{
			Registry: strings.TrimSpace(v.GetString(KeyRegistryAddress)),
			Mint:     strings.TrimSpace(v.GetString(KeyMintAddress)),
			Purchase: strings.TrimSpace(v.GetString(KeyPurchaseAddress)),
			Settle:   strings.TrimSpace(v.GetString(KeySettleAddress)),
		},
		Wallet: Wallet{
			PrivateKey:       strings.TrimSpace(v.GetString(KeyPrivateKey)),
			KeystorePath:     v.GetString(KeyKeystore),
			KeystorePassword: v.GetString(KeyKeystorePass),
			Networks:         networks,
		},
		LogLevel:        level,
		ReceiptTimeout:  timeout,
		StrictContracts: v.GetBool(KeyStrictContracts),
		PrefsPath:       v.GetString(KeyPrefsPath),
	}, nil
}

// TargetChainID returns the target chain id as a big.Int
func (n Network) TargetChainID() *big.Int {
	return new(big.Int).SetUint64(n.ChainID)
}

// MissingContracts returns the env keys of every contract address that is not set
func (c Config) MissingContracts() []string {
	var missing []string
	if c.Contracts.Registry == "" {
		missing = append(missing, KeyRegistryAddress)
	}
	if c.Contracts.Mint == "" {
		missing = append(missing, KeyMintAddress)
	}
	if c.Contracts.Purchase == "" {
		missing = append(missing, KeyPurchaseAddress)
	}
	if c.Contracts.Settle == "" {
		missing = append(missing, KeySettleAddress)
	}
	return missing
}

// HasWallet reports whether a local signing key source is configured
func (c Config) HasWallet() bool {
	return c.Wallet.PrivateKey != "" || c.Wallet.KeystorePath != ""
}

// Validate logs configuration gaps. It never fails: a missing address degrades
// the session instead of blocking startup.
func (c Config) Validate(logger *log.Logger) {
	for _, key := range c.MissingContracts() {
		logger.Error("contract address is not set", "key", key)
	}
	if c.Network.RPCURL == "" {
		logger.Warn("RPC_URL is not set")
	}
	if !c.HasWallet() {
		logger.Warn("no wallet configured", "hint", "set WALLET_PRIVATE_KEY or WALLET_KEYSTORE")
	}
}

// parseNetworkList parses "id=url,id=url"
func parseNetworkList(s string) ([]NetworkEntry, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []NetworkEntry
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, url, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q is not id=url", part)
		}
		chainID, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", part, err)
		}
		out = append(out, NetworkEntry{ChainID: chainID, RPCURL: strings.TrimSpace(url)})
	}
	return out, nil
}
