package config

import (
	"strings"

	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// ModuleName is used in CLI help output.
const ModuleName = "go-signer"

// ErrUnsupportedChainID is returned when no RPC endpoints are configured for
// the requested EVM chain id.
var ErrUnsupportedChainID = errors.New("unsupported chain id")

// EVMNetwork holds the per-chain-id EVM endpoint configuration.
type EVMNetwork struct {
	Name    string
	ChainID int64
	RPCURLs []string
	// LegacyOnly networks have no EIP-1559 fee market and always get
	// gas-price transactions.
	LegacyOnly bool
}

// BitcoinConfig holds Bitcoin network parameters and esplora-style API
// endpoints.
type BitcoinConfig struct {
	Network           chain.BitcoinNetwork
	APIURLs           []string
	DefaultFeeSats    int64
	DustThresholdSats int64
}

// SolanaConfig holds Solana JSON-RPC endpoints.
type SolanaConfig struct {
	RPCURLs []string
}

// TronConfig holds TRON node HTTP API endpoints.
type TronConfig struct {
	APIURLs     []string
	FeeLimitSun int64
}

// TONConfig holds toncenter-style HTTP API endpoints.
type TONConfig struct {
	APIURLs []string
}

// Config is the full service configuration. It is constructed once and passed
// explicitly into every signer; there is no package-level endpoint state.
type Config struct {
	EVMNetworks map[int64]EVMNetwork
	Bitcoin     BitcoinConfig
	Solana      SolanaConfig
	Tron        TronConfig
	TON         TONConfig

	LogLevel string
}

// EVMNetwork returns the configuration for an EVM chain id.
func (c Config) EVMNetwork(chainID int64) (EVMNetwork, error) {
	network, ok := c.EVMNetworks[chainID]
	if !ok {
		return EVMNetwork{}, errors.Wrapf(ErrUnsupportedChainID, "%d", chainID)
	}

	return network, nil
}

// DefaultConfigFromEnv reads the configuration from the environment with sane
// mainnet defaults. All settings use the WALLET_ prefix.
func DefaultConfigFromEnv() Config {
	v := viper.New()
	v.SetEnvPrefix("WALLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")

	v.SetDefault("evm.ethereum.chain_id", 1)
	v.SetDefault("evm.ethereum.rpc_urls", "https://ethereum-rpc.publicnode.com")
	v.SetDefault("evm.ethereum.legacy_only", false)
	v.SetDefault("evm.polygon.chain_id", 137)
	v.SetDefault("evm.polygon.rpc_urls", "https://polygon-rpc.com")
	v.SetDefault("evm.polygon.legacy_only", false)
	v.SetDefault("evm.bsc.chain_id", 56)
	v.SetDefault("evm.bsc.rpc_urls", "https://bsc-dataseed.binance.org")
	v.SetDefault("evm.bsc.legacy_only", true)

	v.SetDefault("bitcoin.network", "mainnet")
	v.SetDefault("bitcoin.api_urls", "https://blockstream.info/api,https://mempool.space/api")
	v.SetDefault("bitcoin.default_fee_sats", 1000)
	v.SetDefault("bitcoin.dust_threshold_sats", 546)

	v.SetDefault("solana.rpc_urls", "https://api.mainnet-beta.solana.com")

	v.SetDefault("tron.api_urls", "https://api.trongrid.io")
	v.SetDefault("tron.fee_limit_sun", 100_000_000)

	v.SetDefault("ton.api_urls", "https://toncenter.com/api/v2")

	evmNetworks := make(map[int64]EVMNetwork)
	for _, name := range []string{"ethereum", "polygon", "bsc"} {
		chainID := v.GetInt64("evm." + name + ".chain_id")
		evmNetworks[chainID] = EVMNetwork{
			Name:       name,
			ChainID:    chainID,
			RPCURLs:    splitURLs(v.GetString("evm." + name + ".rpc_urls")),
			LegacyOnly: v.GetBool("evm." + name + ".legacy_only"),
		}
	}

	// An unknown network name falls back to mainnet
	bitcoinNetwork, err := chain.ParseBitcoinNetwork(v.GetString("bitcoin.network"))
	if err != nil {
		bitcoinNetwork = chain.BitcoinMainnet
	}

	return Config{
		EVMNetworks: evmNetworks,
		Bitcoin: BitcoinConfig{
			Network:           bitcoinNetwork,
			APIURLs:           splitURLs(v.GetString("bitcoin.api_urls")),
			DefaultFeeSats:    v.GetInt64("bitcoin.default_fee_sats"),
			DustThresholdSats: v.GetInt64("bitcoin.dust_threshold_sats"),
		},
		Solana: SolanaConfig{
			RPCURLs: splitURLs(v.GetString("solana.rpc_urls")),
		},
		Tron: TronConfig{
			APIURLs:     splitURLs(v.GetString("tron.api_urls")),
			FeeLimitSun: v.GetInt64("tron.fee_limit_sun"),
		},
		TON: TONConfig{
			APIURLs: splitURLs(v.GetString("ton.api_urls")),
		},
		LogLevel: v.GetString("log.level"),
	}
}

// splitURLs parses a comma-separated URL list.
func splitURLs(raw string) []string {
	parts := strings.Split(raw, ",")

	urls := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			urls = append(urls, part)
		}
	}

	return urls
}
