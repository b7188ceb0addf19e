// Package presets holds named configurations that replace the defaults.
package presets

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spacemeshos/go-evmbridge/config"
)

var presets = map[string]config.Config{}

func register(name string, conf config.Config) {
	if _, exist := presets[name]; exist {
		panic(fmt.Sprintf("preset with name %s already exists", name))
	}
	presets[name] = conf
}

// Options returns the names of all presets.
func Options() []string {
	return slices.Sorted(maps.Keys(presets))
}

// Get a preset by name.
func Get(name string) (config.Config, error) {
	conf, exists := presets[name]
	if !exists {
		return config.Config{}, fmt.Errorf("preset %s doesn't exist", name)
	}
	return conf, nil
}
