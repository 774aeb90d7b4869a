package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "AMM"

// Store backends.
const (
	StoreBolt     = "bolt"
	StorePostgres = "postgres"
)

// Config holds settings shared by every command.
type Config struct {
	Store             string
	BoltPath          string
	PGDSN             string
	PGConnectRetries  int
	PGConflictRetries int
	RetryBackoff      time.Duration
	Journal           string
	LogLevel          string
	Key               string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return loadBase(v)
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", StoreBolt)
	v.SetDefault("bolt-path", "./data/amm.db")
	v.SetDefault("pg-connect-retries", 5)
	v.SetDefault("pg-conflict-retries", 3)
	v.SetDefault("retry-backoff", 200*time.Millisecond)
	v.SetDefault("journal", "./data/journal.jsonl")
	v.SetDefault("log-level", "info")
	v.SetDefault("ttl", 5*time.Minute)
	v.SetDefault("window", "1h")
	v.SetDefault("batch-size", 1000)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func loadBase(v *viper.Viper) (Config, error) {
	cfg := Config{
		Store:             strings.ToLower(v.GetString("store")),
		BoltPath:          v.GetString("bolt-path"),
		PGDSN:             v.GetString("pg-dsn"),
		PGConnectRetries:  v.GetInt("pg-connect-retries"),
		PGConflictRetries: v.GetInt("pg-conflict-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		Journal:           v.GetString("journal"),
		LogLevel:          v.GetString("log-level"),
		Key:               v.GetString("key"),
	}

	switch cfg.Store {
	case StoreBolt:
		if cfg.BoltPath == "" {
			return Config{}, fmt.Errorf("bolt-path is required for store %q", cfg.Store)
		}
	case StorePostgres:
		if cfg.PGDSN == "" {
			return Config{}, fmt.Errorf("pg-dsn is required for store %q", cfg.Store)
		}
	default:
		return Config{}, fmt.Errorf("unknown store %q", cfg.Store)
	}
	return cfg, nil
}

// RequireKey fails when no signing key is configured.
func (c Config) RequireKey() error {
	if strings.TrimSpace(c.Key) == "" {
		return fmt.Errorf("key is required (flag --key or env %s_KEY)", envPrefix)
	}
	return nil
}

func getAddress(v *viper.Viper, key string) (common.Address, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return common.Address{}, fmt.Errorf("%s is required", key)
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", key, raw)
	}
	return common.HexToAddress(raw), nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
