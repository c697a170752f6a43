package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosn/layotto/application/config"
	"github.com/mosn/layotto/application/plugin"
	"github.com/mosn/layotto/domain/entities"
	"github.com/mosn/layotto/hostfuncs"
	"github.com/mosn/layotto/testing/proxytest"
)

type routeConfig struct {
	TargetService string `yaml:"target_service" validate:"required"`
	Method        string `yaml:"method"`
}

func TestLoadConfiguration(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		proxytest.New(t,
			proxytest.WithDispatcher(plugin.NewDispatcher()),
			proxytest.WithHostOptions(hostfuncs.WithBuffer(entities.BufferTypePluginConfiguration,
				[]byte(`{"target_service":"id_3"}`))),
		)

		var cfg routeConfig
		found, err := plugin.LoadConfiguration(&cfg)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "id_3", cfg.TargetService)

		m, err := plugin.LoadConfigurationMap()
		require.NoError(t, err)
		assert.Equal(t, "id_3", config.GetStringDefault(m, "target_service", ""))
	})

	t.Run("absent", func(t *testing.T) {
		proxytest.New(t, proxytest.WithDispatcher(plugin.NewDispatcher()))

		cfg := routeConfig{TargetService: "id_2"}
		found, err := plugin.LoadConfiguration(&cfg)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, "id_2", cfg.TargetService)

		m, err := plugin.LoadConfigurationMap()
		require.NoError(t, err)
		assert.Empty(t, m)
	})

	t.Run("invalid", func(t *testing.T) {
		proxytest.New(t,
			proxytest.WithDispatcher(plugin.NewDispatcher()),
			proxytest.WithHostOptions(hostfuncs.WithBuffer(entities.BufferTypePluginConfiguration,
				[]byte(`{"method":"lookup"}`))),
		)

		var cfg routeConfig
		found, err := plugin.LoadConfiguration(&cfg)
		assert.True(t, found)
		assert.ErrorContains(t, err, "required")
	})
}
