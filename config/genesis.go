package config

import (
	"fmt"
	"slices"

	"github.com/spacemeshos/go-evmbridge/common/types"
)

// GenesisConfig is the state applied before the first block.
type GenesisConfig struct {
	// Accounts maps native account names to their initial token supply, e.g. "alice": "1000.0000 EOS".
	Accounts map[string]string `mapstructure:"accounts"`
	// Miners get an open balance for their gas fee cut.
	Miners []types.Name `mapstructure:"miners"`
}

func defaultGenesisConfig() GenesisConfig {
	return GenesisConfig{Accounts: map[string]string{}}
}

// Allocation of initial token supply.
type Allocation struct {
	Owner    types.Name
	Quantity types.Asset
}

// Allocations parses the genesis accounts, sorted by owner.
func (g GenesisConfig) Allocations(symbol types.Symbol) ([]Allocation, error) {
	rst := make([]Allocation, 0, len(g.Accounts))
	for owner, quantity := range g.Accounts {
		name, err := types.ParseName(owner)
		if err != nil {
			return nil, fmt.Errorf("genesis account %q: %w", owner, err)
		}
		asset, err := types.ParseAsset(quantity)
		if err != nil {
			return nil, fmt.Errorf("genesis account %s: %w", owner, err)
		}
		if asset.Symbol != symbol {
			return nil, fmt.Errorf("genesis account %s: symbol %s, token %s", owner, asset.Symbol, symbol)
		}
		rst = append(rst, Allocation{Owner: name, Quantity: asset})
	}
	slices.SortFunc(rst, func(a, b Allocation) int {
		switch {
		case a.Owner < b.Owner:
			return -1
		case a.Owner > b.Owner:
			return 1
		}
		return 0
	})
	return rst, nil
}
