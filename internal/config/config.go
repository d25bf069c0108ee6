// Package config loads service settings from an optional YAML file, a .env
// file and the environment, in increasing order of precedence. A .env entry
// never replaces a variable that is already set. Flags parsed by the caller
// override all of them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends for the wardrobe.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "OMARA"

// RedisConfig holds the connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// Config is the top-level service configuration.
type Config struct {
	DBPath    string      `mapstructure:"db"`
	Addr      string      `mapstructure:"addr"`
	AdminUser string      `mapstructure:"admin_user"`
	LogPath   string      `mapstructure:"log"`
	Backend   string      `mapstructure:"backend"`
	Redis     RedisConfig `mapstructure:"redis"`
	CORS      CORSConfig  `mapstructure:"cors"`
}

// Validate checks values that have a fixed set of options.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis backend requires redis.addr")
		}
	default:
		return fmt.Errorf("unknown backend %q (want sqlite, redis or memory)", c.Backend)
	}
	if c.DBPath == "" {
		return errors.New("db path required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "omara.sqlite3")
	v.SetDefault("addr", ":8080")
	v.SetDefault("admin_user", "Admin")
	v.SetDefault("log", "")
	v.SetDefault("backend", BackendSQLite)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "omara:")
	v.SetDefault("cors.origins", []string{"*"})
}

// Load reads configuration. A missing .env file or a missing config file is
// not an error; path may be empty to skip the file entirely.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Comma-separated origins from the environment arrive as one string.
	if len(cfg.CORS.Origins) == 1 && strings.Contains(cfg.CORS.Origins[0], ",") {
		cfg.CORS.Origins = strings.Split(cfg.CORS.Origins[0], ",")
	}

	return cfg, nil
}

// DefaultEnvFile is the .env file Load reads when the caller does not pick one.
func DefaultEnvFile() string {
	if p := os.Getenv(EnvPrefix + "_ENV_FILE"); p != "" {
		return p
	}
	return ".env"
}
