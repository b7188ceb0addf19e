package presets

import (
	"time"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/config"
)

func init() {
	register("testnet", testnet())
}

func testnet() config.Config {
	conf := config.DefaultConfig()
	conf.Bridge.ChainID = 15557
	conf.Bridge.IngressBridgeFee = types.MustAsset("0.0100 EOS")
	conf.Params.ActivationDelay = 3 * time.Minute
	conf.Chain.BlockInterval = time.Second
	conf.Logging.Encoder = config.JSONLogEncoder
	conf.CollectMetrics = true
	return conf
}
