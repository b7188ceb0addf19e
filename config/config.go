// Package config contains the bridge node configuration definitions.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/spacemeshos/go-evmbridge/chain"
	"github.com/spacemeshos/go-evmbridge/checkpoint"
	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/params"
	"github.com/spacemeshos/go-evmbridge/txs"
)

const defaultConfigFileName = "./config.toml"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config defines the top level configuration of a bridge node.
type Config struct {
	BaseConfig `mapstructure:"main"`
	Preset     string            `mapstructure:"preset"`
	Bridge     BridgeConfig      `mapstructure:"bridge"`
	Params     ParamsConfig      `mapstructure:"params"`
	Chain      chain.Config      `mapstructure:"chain"`
	Genesis    GenesisConfig     `mapstructure:"genesis"`
	Recovery   checkpoint.Config `mapstructure:"recovery"`
	Logging    LoggerConfig      `mapstructure:"logging"`
}

// BaseConfig defines the storage and process options.
type BaseConfig struct {
	DataDir    string `mapstructure:"data-folder"`
	ConfigFile string `mapstructure:"config"`
	// DBConnections is the size of the sqlite connection pool.
	DBConnections int `mapstructure:"db-connections"`

	CollectMetrics    bool          `mapstructure:"metrics"`
	MetricsPort       int           `mapstructure:"metrics-port"`
	MetricsPush       string        `mapstructure:"metrics-push"`
	MetricsPushPeriod time.Duration `mapstructure:"metrics-push-period"`

	ProfilerName            string `mapstructure:"profiler-name"`
	ProfilerURL             string `mapstructure:"profiler-url"`
	PprofHTTPServerListener string `mapstructure:"pprof-listener"`
}

// BridgeConfig holds the accounts and fee parameters the bridge is initialized with.
type BridgeConfig struct {
	Account       types.Name `mapstructure:"account"`
	TokenContract types.Name `mapstructure:"token-contract"`
	ChainID       uint64     `mapstructure:"chain-id"`
	GasPrice      uint64     `mapstructure:"gas-price"`
	MinerCut      uint64     `mapstructure:"miner-cut"`
	// IngressBridgeFee also sets the symbol of the bridged token.
	IngressBridgeFee types.Asset `mapstructure:"ingress-bridge-fee"`
	SenderCacheSize  int         `mapstructure:"sender-cache-size"`
}

// Symbol of the bridged token.
func (c BridgeConfig) Symbol() types.Symbol {
	return c.IngressBridgeFee.Symbol
}

// FeeParams for the init action.
func (c BridgeConfig) FeeParams() types.FeeParams {
	return types.FeeParams{
		GasPrice:         c.GasPrice,
		MinerCut:         c.MinerCut,
		IngressBridgeFee: c.IngressBridgeFee,
	}
}

// ParamsConfig configures consensus parameter activation.
type ParamsConfig struct {
	ActivationDelay time.Duration `mapstructure:"activation-delay"`
	MaxVersion      uint64        `mapstructure:"max-version"`
}

// DefaultConfig returns the default configuration for a bridge node.
func DefaultConfig() Config {
	return Config{
		BaseConfig: defaultBaseConfig(),
		Bridge:     defaultBridgeConfig(),
		Params: ParamsConfig{
			ActivationDelay: params.DefaultActivationDelay,
			MaxVersion:      params.DefaultMaxVersion,
		},
		Chain:    chain.DefaultConfig(),
		Genesis:  defaultGenesisConfig(),
		Recovery: checkpoint.DefaultConfig(),
		Logging:  defaultLoggingConfig(),
	}
}

func defaultBaseConfig() BaseConfig {
	return BaseConfig{
		DataDir:           "./evmbridge",
		ConfigFile:        defaultConfigFileName,
		DBConnections:     4,
		MetricsPort:       1010,
		MetricsPushPeriod: time.Minute,
		ProfilerName:      "evmbridge",
	}
}

func defaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		Account:          types.MustName("eosio.evm"),
		TokenContract:    types.MustName("eosio.token"),
		ChainID:          15555,
		GasPrice:         150_000_000_000,
		MinerCut:         10_000,
		IngressBridgeFee: types.MustAsset("0.0100 EOS"),
		SenderCacheSize:  txs.DefaultSenderCacheSize,
	}
}

// Validate checks values that would make the bridge reject its own init.
func (cfg *Config) Validate() error {
	b := cfg.Bridge
	switch {
	case b.ChainID == 0:
		return fmt.Errorf("%w: zero chain id", ErrInvalidConfig)
	case b.Account == 0:
		return fmt.Errorf("%w: empty bridge account", ErrInvalidConfig)
	case b.TokenContract == 0:
		return fmt.Errorf("%w: empty token contract", ErrInvalidConfig)
	case b.Account == b.TokenContract:
		return fmt.Errorf("%w: bridge and token contract are both %s", ErrInvalidConfig, b.Account)
	case b.MinerCut > types.HundredPercent:
		return fmt.Errorf("%w: miner cut %d above %d", ErrInvalidConfig, b.MinerCut, types.HundredPercent)
	case b.GasPrice == 0:
		return fmt.Errorf("%w: zero gas price", ErrInvalidConfig)
	case b.Symbol().Code == "":
		return fmt.Errorf("%w: ingress fee must name the token symbol", ErrInvalidConfig)
	case b.Symbol().Precision > types.MaxPrecision:
		return fmt.Errorf("%w: token precision %d above %d", ErrInvalidConfig, b.Symbol().Precision, types.MaxPrecision)
	case cfg.Params.ActivationDelay <= 0:
		return fmt.Errorf("%w: activation delay must be positive, got %v", ErrInvalidConfig, cfg.Params.ActivationDelay)
	case cfg.Params.MaxVersion < 1:
		return fmt.Errorf("%w: max version must be at least 1", ErrInvalidConfig)
	case cfg.Chain.BlockInterval <= 0:
		return fmt.Errorf("%w: block interval must be positive, got %v", ErrInvalidConfig, cfg.Chain.BlockInterval)
	case cfg.Chain.MaxSubmissions <= 0:
		return fmt.Errorf("%w: max submissions must be positive", ErrInvalidConfig)
	case cfg.Recovery.RetryMax < 0:
		return fmt.Errorf("%w: negative recovery retries", ErrInvalidConfig)
	}
	if _, err := cfg.Genesis.Allocations(b.Symbol()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// LoadConfig reads the config file into vip. An empty location reads the default file.
func LoadConfig(fileLocation string, vip *viper.Viper) error {
	if fileLocation == "" {
		fileLocation = defaultConfigFileName
	}
	vip.SetConfigFile(fileLocation)
	if err := vip.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %w", err)
	}
	return nil
}

// DecodeHook converts config strings into durations, names and assets.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

// Unmarshal decodes vip on top of cfg. Unknown keys are rejected.
func Unmarshal(vip *viper.Viper, cfg *Config) error {
	opts := []viper.DecoderConfigOption{
		viper.DecodeHook(DecodeHook()),
		withErrorUnused(),
	}
	if err := vip.Unmarshal(cfg, opts...); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func withErrorUnused() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
	}
}
