package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/urfave/cli"

	"github.com/brightctl/go-ddcci/channel"
)

// settings is the merged configuration: flags over DDCBRIGHT_* environment
// variables over the config file over defaults.
type settings struct {
	I2CPath      string        `mapstructure:"i2c_path"`
	Output       string        `mapstructure:"output"`
	CacheFile    string        `mapstructure:"cache_file"`
	NoCache      bool          `mapstructure:"no_cache"`
	Debug        bool          `mapstructure:"debug"`
	Retries      int           `mapstructure:"retries"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
	CommandDelay time.Duration `mapstructure:"command_delay"`
}

// configPaths are searched for ddcbright.{yaml,toml,json} when --config is not given.
var configPaths = []string{
	"$XDG_CONFIG_HOME/ddcbright",
	"$HOME/.config/ddcbright",
	"/etc/ddcbright",
}

func loadSettings(c *cli.Context, fs afero.Fs) (*settings, error) {
	v := viper.New()
	v.SetFs(fs)

	v.SetDefault("i2c_path", "")
	v.SetDefault("output", "")
	v.SetDefault("cache_file", "")
	v.SetDefault("no_cache", false)
	v.SetDefault("debug", false)
	v.SetDefault("retries", 2)
	v.SetDefault("settle_delay", channel.DefaultSettleDelay)
	v.SetDefault("command_delay", channel.DefaultCommandDelay)

	v.SetEnvPrefix("DDCBRIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := c.String("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", file)
		}
	} else {
		v.SetConfigName("ddcbright")
		for _, p := range configPaths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	for _, name := range []string{"i2c-path", "output", "cache-file"} {
		if c.IsSet(name) {
			v.Set(key(name), c.String(name))
		}
	}
	for _, name := range []string{"no-cache", "debug"} {
		if c.IsSet(name) {
			v.Set(key(name), c.Bool(name))
		}
	}

	s := &settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if s.SettleDelay < channel.DefaultSettleDelay {
		return nil, usageErrorf("settle_delay %s is below the DDC/CI minimum of %s", s.SettleDelay, channel.DefaultSettleDelay)
	}
	if s.Retries < 0 {
		return nil, usageErrorf("retries must not be negative, got %d", s.Retries)
	}

	return s, nil
}

// key maps a flag name to its config key.
func key(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// cachePath returns the bus cache location.
func cachePath(e *env, s *settings) (string, error) {
	if s.CacheFile != "" {
		return s.CacheFile, nil
	}
	dir, err := e.cacheDir()
	if err != nil {
		return "", errors.Wrap(err, "locate cache directory")
	}
	return filepath.Join(dir, "ddcbright", "bus.yaml"), nil
}
