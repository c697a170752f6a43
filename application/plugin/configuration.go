package plugin

import (
	"github.com/mosn/layotto/application/config"
	"github.com/mosn/layotto/proxywasm"
)

// LoadConfiguration reads the PluginConfiguration buffer and decodes it
// into target with config.Decode. A missing buffer leaves target untouched
// apart from validation and reports found == false. Call it from
// OnConfigure.
func LoadConfiguration(target any) (found bool, err error) {
	data, found, err := proxywasm.GetPluginConfiguration()
	if err != nil {
		return false, err
	}
	return found, config.Decode(data, target)
}

// LoadConfigurationMap is LoadConfiguration for untyped access through the
// config Get helpers.
func LoadConfigurationMap() (config.Config, error) {
	data, _, err := proxywasm.GetPluginConfiguration()
	if err != nil {
		return nil, err
	}
	return config.Parse(data)
}
