// Package cmd holds the flag and config plumbing shared by the executables.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/spacemeshos/go-evmbridge/config"
	"github.com/spacemeshos/go-evmbridge/config/presets"
)

var (
	// Version is the app's semantic version. Designed to be overwritten by make.
	Version string

	// Branch is the git branch used to build the App. Designed to be overwritten by make.
	Branch string

	// Commit is the git commit used to build the app. Designed to be overwritten by make.
	Commit string
)

// flagKeys maps flags to the config keys they overwrite.
var flagKeys = map[string]string{
	"data-folder":         "main.data-folder",
	"metrics":             "main.metrics",
	"metrics-port":        "main.metrics-port",
	"metrics-push":        "main.metrics-push",
	"metrics-push-period": "main.metrics-push-period",
	"profiler-url":        "main.profiler-url",
	"pprof-listener":      "main.pprof-listener",
	"bridge-account":      "bridge.account",
	"token-contract":      "bridge.token-contract",
	"chain-id":            "bridge.chain-id",
	"gas-price":           "bridge.gas-price",
	"miner-cut":           "bridge.miner-cut",
	"ingress-bridge-fee":  "bridge.ingress-bridge-fee",
	"activation-delay":    "params.activation-delay",
	"block-interval":      "chain.block-interval",
	"recovery-uri":        "recovery.recovery-uri",
	"log-encoder":         "logging.log-encoder",
}

// AddFlags adds the config flags to cmd. Defaults are taken from conf.
func AddFlags(cmd *cobra.Command, conf *config.Config) {
	cmd.PersistentFlags().StringP("preset", "p", "",
		fmt.Sprintf("preset overwrites default values of the config. options %+s", presets.Options()))
	cmd.PersistentFlags().StringP("config", "c", "", "load configuration from file")

	flags := cmd.PersistentFlags()
	flags.StringP("data-folder", "d", conf.DataDir, "directory for the state database")
	flags.Bool("metrics", conf.CollectMetrics, "serve prometheus metrics")
	flags.Int("metrics-port", conf.MetricsPort, "metrics server port")
	flags.String("metrics-push", conf.MetricsPush, "push metrics to url")
	flags.Duration("metrics-push-period", conf.MetricsPushPeriod, "metrics push period")
	flags.String("profiler-url", conf.ProfilerURL, "send profiles to a pyroscope server")
	flags.String("pprof-listener", conf.PprofHTTPServerListener, "serve pprof on this address")
	flags.String("bridge-account", conf.Bridge.Account.String(), "account of the bridge contract")
	flags.String("token-contract", conf.Bridge.TokenContract.String(), "account of the bridged token contract")
	flags.Uint64("chain-id", conf.Bridge.ChainID, "evm chain id")
	flags.Uint64("gas-price", conf.Bridge.GasPrice, "initial gas price in wei")
	flags.Uint64("miner-cut", conf.Bridge.MinerCut, "share of gas fees paid to miners, 100000 is everything")
	flags.String("ingress-bridge-fee", conf.Bridge.IngressBridgeFee.String(), "fee charged on every deposit")
	flags.Duration("activation-delay", conf.Params.ActivationDelay, "delay before a new gas price activates")
	flags.Duration("block-interval", conf.Chain.BlockInterval, "interval between blocks")
	flags.String("recovery-uri", conf.Recovery.Uri, "restore state from a checkpoint before the first start")
	flags.String("log-encoder", conf.Logging.Encoder, "log encoder, console or json")
}

// LoadConfig builds the config from the preset, the config file and the flags that were set,
// in that order of precedence from lowest to highest.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	conf := config.DefaultConfig()
	vip := viper.New()
	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := config.LoadConfig(path, vip); err != nil {
			return nil, err
		}
	}
	preset, err := flags.GetString("preset")
	if err != nil {
		return nil, err
	}
	if preset == "" && vip.IsSet("preset") {
		preset = vip.GetString("preset")
	}
	if preset != "" {
		p, err := presets.Get(preset)
		if err != nil {
			return nil, err
		}
		conf = p
	}
	var bindErr error
	flags.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = vip.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}
	if err := config.Unmarshal(vip, &conf); err != nil {
		return nil, err
	}
	conf.ConfigFile = path
	conf.Preset = preset
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}
