package presets

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/config"
)

func init() {
	register("standalone", standalone())
}

// standalone runs a single node with a funded genesis and short activation delays.
func standalone() config.Config {
	conf := config.DefaultConfig()
	conf.DataDir = filepath.Join(os.TempDir(), "evmbridge")

	conf.Bridge.ChainID = 18888
	conf.Bridge.TokenContract = types.MustName("gasgasgasgas")
	conf.Bridge.GasPrice = 10_000_000_000
	conf.Bridge.IngressBridgeFee = types.MustAsset("0.01000000 GAS")

	conf.Params.ActivationDelay = 10 * time.Second
	conf.Chain.BlockInterval = 500 * time.Millisecond

	conf.Genesis = config.GenesisConfig{
		Accounts: map[string]string{
			"alice": "1000000.00000000 GAS",
			"bob":   "1000000.00000000 GAS",
		},
		Miners: []types.Name{types.MustName("miner")},
	}
	conf.Logging.BridgeLoggerLevel = "debug"
	conf.Logging.ChainLoggerLevel = "debug"
	return conf
}
