package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		KeyRegistryAddress, KeyMintAddress, KeyPurchaseAddress, KeySettleAddress,
		KeyChainID, KeyNetworkName, KeyRPCURL, KeyExplorerURL, KeyPrivateKey,
		KeyKeystore, KeyWalletNetworks, KeyLogLevel, KeyReceiptTimeout, KeyStrictContracts,
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, uint64(DefaultChainID), cfg.Network.ChainID)
	assert.Equal(t, DefaultNetworkName, cfg.Network.Name)
	assert.Equal(t, DefaultRPCURL, cfg.Network.RPCURL)
	assert.Equal(t, "MNT", cfg.Network.Currency.Symbol)
	assert.Equal(t, uint8(18), cfg.Network.Currency.Decimals)
	assert.Equal(t, DefaultReceiptTimeout, cfg.ReceiptTimeout)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
	assert.False(t, cfg.StrictContracts)
	assert.False(t, cfg.HasWallet())
	assert.Len(t, cfg.MissingContracts(), 4)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := `CONTRACT_ADDRESS=0x1000000000000000000000000000000000000001
MINT_ACTION_ADDRESS=0x2000000000000000000000000000000000000002
PURCHASE_ACTION_ADDRESS=0x3000000000000000000000000000000000000003
CHAIN_ID=545
NETWORK_NAME=Flow EVM Testnet
LOG_LEVEL=debug
RECEIPT_TIMEOUT=30s
STRICT_CONTRACTS=true
WALLET_NETWORKS=1=https://eth.example, 747 = https://flow.example
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(545), cfg.Network.ChainID)
	assert.Equal(t, "Flow EVM Testnet", cfg.Network.Name)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ReceiptTimeout)
	assert.True(t, cfg.StrictContracts)
	assert.Equal(t, []string{KeySettleAddress}, cfg.MissingContracts())
	assert.Equal(t, []NetworkEntry{
		{ChainID: 1, RPCURL: "https://eth.example"},
		{ChainID: 747, RPCURL: "https://flow.example"},
	}, cfg.Wallet.Networks)
	assert.Equal(t, "545", cfg.Network.TargetChainID().String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("chain id", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(KeyChainID, "mantle")
		_, err := Load(filepath.Join(t.TempDir(), "none"))
		require.Error(t, err)
	})

	t.Run("wallet networks", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(KeyWalletNetworks, "https://no-id.example")
		_, err := Load(filepath.Join(t.TempDir(), "none"))
		require.Error(t, err)
	})
}

func TestPrefsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	p := LoadOrCreatePrefs(path)
	assert.Equal(t, DefaultPrefs(), p)
	_, err := os.Stat(path)
	require.NoError(t, err)

	SavePrefs(path, Prefs{Logger: true, LastPage: PagePortfolio})
	got := LoadPrefs(path)
	assert.True(t, got.Logger)
	assert.Equal(t, PagePortfolio, got.LastPage)
}
