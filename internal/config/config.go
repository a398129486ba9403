package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"
	"github.com/sparkwallet/sparkd/internal/core/application"
	"github.com/sparkwallet/sparkd/internal/core/domain"
)

const (
	// DatadirKey is the local data directory to store the internal state of
	// the daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the
	// values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// NetworkKey is the bitcoin network the daemon operates on, one of
	// mainnet, testnet or regtest
	NetworkKey = "NETWORK"
	// ExplorerUrlKey is the base url of the esplora instance used as chain
	// data source
	ExplorerUrlKey = "EXPLORER_URL"
	// SignerAddrKey is the address <host:port> of the spark signer daemon
	SignerAddrKey = "SIGNER_ADDR"
	// DepositAddressKey is the wallet's static on-chain deposit address to
	// watch for incoming utxos
	DepositAddressKey = "DEPOSIT_ADDRESS"
	// CrawlIntervalKey is the interval in seconds between two scans of the
	// deposit address
	CrawlIntervalKey = "CRAWL_INTERVAL"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// MaxClaimFeePolicyKey selects the policy capping the fee of automatic
	// deposit claims, one of none, fixed, rate or network
	MaxClaimFeePolicyKey = "MAX_DEPOSIT_CLAIM_FEE_POLICY"
	// MaxClaimFeeValueKey is the value bound to the policy above: an amount
	// in satoshis for fixed, a rate in sat/vB for rate, a leeway in sat/vB
	// for network. Ignored for none.
	MaxClaimFeeValueKey = "MAX_DEPOSIT_CLAIM_FEE_VALUE"
	// AutoOptimizeKey enables the automatic leaf optimization on startup
	AutoOptimizeKey = "OPTIMIZATION_AUTO_START"
	// OptimizationMultiplicityKey is the number of leaves per denomination
	// targeted by the optimizer, 0 to maximize unilateral exit
	OptimizationMultiplicityKey = "OPTIMIZATION_MULTIPLICITY"
	// OptimizationMaxLeavesPerSwapKey limits the leaves moved by a single
	// optimization round
	OptimizationMaxLeavesPerSwapKey = "OPTIMIZATION_MAX_LEAVES_PER_SWAP"

	DbLocation = "db"

	DBBadger   = "badger"
	DBInMemory = "inmemory"

	FeePolicyNone    = "none"
	FeePolicyFixed   = "fixed"
	FeePolicyRate    = "rate"
	FeePolicyNetwork = "network"

	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
	NetworkRegtest = "regtest"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("sparkd", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("SPARKD")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(NetworkKey, NetworkTestnet)
	vip.SetDefault(ExplorerUrlKey, "https://blockstream.info/testnet/api")
	vip.SetDefault(CrawlIntervalKey, 60)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(MaxClaimFeePolicyKey, FeePolicyNone)
	vip.SetDefault(AutoOptimizeKey, false)
	vip.SetDefault(OptimizationMultiplicityKey, 2)
	vip.SetDefault(
		OptimizationMaxLeavesPerSwapKey, application.DefaultMaxLeavesPerSwap,
	)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint32(key string) uint32 {
	return vip.GetUint32(key)
}

func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetCrawlInterval returns the deposit address scan interval.
func GetCrawlInterval() time.Duration {
	return time.Duration(GetInt(CrawlIntervalKey)) * time.Second
}

// GetNetworkParams returns the chain params of the configured network.
func GetNetworkParams() *chaincfg.Params {
	switch GetString(NetworkKey) {
	case NetworkMainnet:
		return &chaincfg.MainNetParams
	case NetworkRegtest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.TestNet3Params
	}
}

// GetMaxDepositClaimFee returns the configured claim fee policy, nil when
// automatic claiming is disabled.
func GetMaxDepositClaimFee() *domain.MaxFee {
	value := GetUint64(MaxClaimFeeValueKey)
	switch GetString(MaxClaimFeePolicyKey) {
	case FeePolicyFixed:
		return domain.NewFixedMaxFee(value)
	case FeePolicyRate:
		return domain.NewRateMaxFee(value)
	case FeePolicyNetwork:
		return domain.NewNetworkRecommendedMaxFee(value)
	default:
		return nil
	}
}

// GetOptimizationConfig returns the leaf optimizer tunables.
func GetOptimizationConfig() application.OptimizationConfig {
	return application.OptimizationConfig{
		AutoEnabled:      GetBool(AutoOptimizeKey),
		Multiplicity:     GetUint32(OptimizationMultiplicityKey),
		MaxLeavesPerSwap: GetUint32(OptimizationMaxLeavesPerSwapKey),
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	switch network := GetString(NetworkKey); network {
	case NetworkMainnet, NetworkTestnet, NetworkRegtest:
	default:
		return fmt.Errorf("unknown network %s", network)
	}

	if !vip.IsSet(SignerAddrKey) {
		return fmt.Errorf("missing signer address")
	}

	if !vip.IsSet(DepositAddressKey) {
		return fmt.Errorf("missing deposit address")
	}

	switch dbType := GetString(DBTypeKey); dbType {
	case DBBadger, DBInMemory:
	default:
		return fmt.Errorf("unknown db type %s", dbType)
	}

	switch policy := GetString(MaxClaimFeePolicyKey); policy {
	// A zero leeway is fine for the network policy, the fastest
	// recommended rate alone is already a usable ceiling.
	case FeePolicyNone, FeePolicyNetwork:
	case FeePolicyFixed, FeePolicyRate:
		if GetUint64(MaxClaimFeeValueKey) == 0 {
			return fmt.Errorf(
				"%s requires a positive %s",
				MaxClaimFeePolicyKey, MaxClaimFeeValueKey,
			)
		}
	default:
		return fmt.Errorf("unknown claim fee policy %s", policy)
	}

	if err := GetOptimizationConfig().Validate(); err != nil {
		return err
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	return makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
