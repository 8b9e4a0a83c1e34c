// Package config loads refbench's run configuration from a file, the
// environment, and flag defaults, with viper mediating the three sources.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName      = ".refbench"
	configType      = "yaml"
	envPrefix       = "REFBENCH"
	envKeySeparator = "_"
)

// Config is refbench's top-level run configuration. Flag values passed
// explicitly on the command line override it; see cmd/refbench/commands.
type Config struct {
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	CacheBits int    `mapstructure:"cache_bits"`
	Quality   int    `mapstructure:"quality"`
	Pattern   string `mapstructure:"pattern"`
	Seed      int64  `mapstructure:"seed"`
	Format    string `mapstructure:"format"`
}

// Default values, used as viper defaults. The run command's flags default to
// zero, -1 or empty sentinels and override these only when set.
const (
	DefaultWidth     = 256
	DefaultHeight    = 256
	DefaultCacheBits = 0
	DefaultQuality   = 75
	DefaultPattern   = "gradient"
	DefaultSeed      = 1
	DefaultFormat    = "text"
)

// Load reads configuration from configPath (if non-empty), or from
// ./.refbench.yaml / $HOME/.refbench.yaml otherwise, then the REFBENCH_*
// environment variables, falling back to the package defaults. A missing
// config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("width", DefaultWidth)
	v.SetDefault("height", DefaultHeight)
	v.SetDefault("cache_bits", DefaultCacheBits)
	v.SetDefault("quality", DefaultQuality)
	v.SetDefault("pattern", DefaultPattern)
	v.SetDefault("seed", DefaultSeed)
	v.SetDefault("format", DefaultFormat)
}
