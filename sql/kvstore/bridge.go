package kvstore

import (
	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
)

const (
	bridgeConfigKey = "bridge_config"
	paramsStateKey  = "consensus_params"
)

// BridgeConfig is the on-chain configuration written by init and setfeeparams.
type BridgeConfig struct {
	ChainID       uint64
	TokenContract types.Name
	Symbol        types.Symbol
	MinerCut      uint64
	IngressFee    uint64
}

// IngressBridgeFee returns the ingress fee as an asset.
func (c BridgeConfig) IngressBridgeFee() types.Asset {
	return types.Asset{Amount: c.IngressFee, Symbol: c.Symbol}
}

// SetBridgeConfig stores the bridge configuration.
func SetBridgeConfig(db sql.Executor, cfg BridgeConfig) error {
	return addKeyValue(db, bridgeConfigKey, &cfg)
}

// GetBridgeConfig returns sql.ErrNotFound before init.
func GetBridgeConfig(db sql.Executor) (BridgeConfig, error) {
	var cfg BridgeConfig
	if err := getKeyValue(db, bridgeConfigKey, &cfg); err != nil {
		return BridgeConfig{}, err
	}
	return cfg, nil
}

// SetParamsState stores the encoded state of the consensus parameters versioner.
func SetParamsState(db sql.Executor, state any) error {
	return addKeyValue(db, paramsStateKey, state)
}

// GetParamsState decodes the state of the consensus parameters versioner into state.
func GetParamsState(db sql.Executor, state any) error {
	return getKeyValue(db, paramsStateKey, state)
}
