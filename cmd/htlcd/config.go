package main

import (
	"github.com/iov-one/htlc/errors"
	"github.com/spf13/viper"
)

const (
	storeMemory = "memory"
	storeSQLite = "sqlite"
	storeRedis  = "redis"
)

// Config holds the settings shared by all commands.
type Config struct {
	Store       string `mapstructure:"store"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix"`
	LogLevel    string `mapstructure:"log_level"`
}

// LoadConfig reads configuration from the config file, HTLC_ prefixed
// environment variables and flags bound to v, in increasing order of
// precedence. Without an explicit path an optional htlc.yaml in the working
// directory is used.
func LoadConfig(v *viper.Viper, path string) (*Config, error) {
	v.SetDefault("store", storeSQLite)
	v.SetDefault("sqlite_path", "htlc.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_prefix", "htlc/")
	v.SetDefault("log_level", "info")
	v.SetEnvPrefix("HTLC")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("htlc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, errors.Wrapf(errors.ErrInput, "read config: %s", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "decode config: %s", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate returns an error if the store cannot be opened with this
// configuration.
func (c *Config) Validate() error {
	switch c.Store {
	case storeMemory:
	case storeSQLite:
		if c.SQLitePath == "" {
			return errors.Wrap(errors.ErrEmpty, "sqlite path")
		}
	case storeRedis:
		if c.RedisAddr == "" {
			return errors.Wrap(errors.ErrEmpty, "redis address")
		}
	default:
		return errors.Wrapf(errors.ErrInput, "unknown store %q", c.Store)
	}
	return nil
}
