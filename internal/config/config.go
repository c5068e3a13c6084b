// Package config loads Graft's configuration from an optional TOML file
// and GRAFT_* environment overrides.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the daemon's full runtime configuration.
type Config struct {
	DataDir  string `toml:"dataDir" mapstructure:"dataDir"`
	Host     string `toml:"host" mapstructure:"host"`
	Port     int    `toml:"port" mapstructure:"port"`
	LogLevel string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath  string `toml:"logPath" mapstructure:"logPath"`

	// ReseedDefaultRPM seeds Site.RPM for sites created without an explicit
	// rate. ReseedAddPaused, ReseedSkipChecking and ReseedInterOpDelayMS are
	// loaded but not read by any command: tasks and the reseed command take
	// their add-torrent options from their own flags and fields.
	ReseedDefaultRPM     int  `toml:"reseedDefaultRPM" mapstructure:"reseedDefaultRPM"`
	ReseedAddPaused      bool `toml:"reseedAddPaused" mapstructure:"reseedAddPaused"`
	ReseedSkipChecking   bool `toml:"reseedSkipChecking" mapstructure:"reseedSkipChecking"`
	ReseedInterOpDelayMS int  `toml:"reseedInterOpDelayMs" mapstructure:"reseedInterOpDelayMs"`
}

func defaults() Config {
	return Config{
		DataDir:              "./data",
		Host:                 "127.0.0.1",
		Port:                 7475,
		LogLevel:             "info",
		ReseedDefaultRPM:     10,
		ReseedAddPaused:      false,
		ReseedSkipChecking:   false,
		ReseedInterOpDelayMS: 500,
	}
}

// Load reads configPath (if non-empty and present) as TOML, then applies
// GRAFT_* environment overrides on top, matching the teacher's
// viper.AutomaticEnv + explicit BindEnv-per-key approach.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	d := defaults()

	v.SetDefault("dataDir", d.DataDir)
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("logPath", d.LogPath)
	v.SetDefault("reseedDefaultRPM", d.ReseedDefaultRPM)
	v.SetDefault("reseedAddPaused", d.ReseedAddPaused)
	v.SetDefault("reseedSkipChecking", d.ReseedSkipChecking)
	v.SetDefault("reseedInterOpDelayMs", d.ReseedInterOpDelayMS)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
				return nil, errors.Wrapf(err, "read config file %s", configPath)
			}
		}
	}

	v.SetEnvPrefix("GRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"dataDir", "host", "port", "logLevel", "logPath",
		"reseedDefaultRPM", "reseedAddPaused", "reseedSkipChecking", "reseedInterOpDelayMs",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "bind env for %s", key)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}

// ReseedInterOpDelay is ReseedInterOpDelayMS as a time.Duration.
func (c *Config) ReseedInterOpDelay() time.Duration {
	return time.Duration(c.ReseedInterOpDelayMS) * time.Millisecond
}
