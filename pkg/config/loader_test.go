package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ratekit/pkg/config"
)

type defaultsConfig struct {
	Backend string   `env:"TEST_DEFAULTS_BACKEND" envDefault:"memory"`
	Port    int      `env:"TEST_DEFAULTS_PORT" envDefault:"8080"`
	Servers []string `env:"TEST_DEFAULTS_SERVERS" envSeparator:"," envDefault:"a:1,b:2"`
}

type cachedConfig struct {
	Value string `env:"TEST_CACHED_VALUE" envDefault:"first"`
}

type requiredConfig struct {
	Required string `env:"TEST_REQUIRED_VALUE,required"`
}

type envFileConfig struct {
	Backend string `env:"TEST_ENVFILE_BACKEND"`
	Prefix  string `env:"TEST_ENVFILE_PREFIX"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Servers)
}

func TestLoad_Cached(t *testing.T) {
	t.Setenv("TEST_CACHED_VALUE", "first")

	var cfg cachedConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "first", cfg.Value)

	t.Setenv("TEST_CACHED_VALUE", "second")

	var again cachedConfig
	require.NoError(t, config.Load(&again))
	assert.Equal(t, "first", again.Value, "second load must come from the cache")

	config.Reset()

	var reloaded cachedConfig
	require.NoError(t, config.Load(&reloaded))
	assert.Equal(t, "second", reloaded.Value)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[defaultsConfig](nil), config.ErrNilPointer)
	})

	t.Run("missing required value", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("must load panics", func(t *testing.T) {
		assert.Panics(t, func() {
			var cfg requiredConfig
			config.MustLoad(&cfg)
		})
	})
}

func TestParse(t *testing.T) {
	t.Setenv("TEST_REQUIRED_VALUE", "set")

	cfg, err := config.Parse[requiredConfig]()
	require.NoError(t, err)
	assert.Equal(t, "set", cfg.Required)
}

func TestLoadEnv(t *testing.T) {
	require.NoError(t, os.Unsetenv("TEST_ENVFILE_BACKEND"))
	require.NoError(t, os.Unsetenv("TEST_ENVFILE_PREFIX"))
	t.Cleanup(func() {
		_ = os.Unsetenv("TEST_ENVFILE_BACKEND")
		_ = os.Unsetenv("TEST_ENVFILE_PREFIX")
	})

	require.NoError(t, config.LoadEnv("testdata/.env.test"))

	cfg, err := config.Parse[envFileConfig]()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Backend)
	assert.Equal(t, "quoted prefix", cfg.Prefix)

	err = config.LoadEnv("testdata/missing.env")
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}
