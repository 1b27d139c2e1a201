// Package config holds engine configuration and its defaults.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Storage     StorageConfig
	Query       QueryConfig
	Maintenance MaintenanceConfig
	Logging     LoggingConfig
}

type StorageConfig struct {
	// PageSize is the capacity of one data page in bytes.
	PageSize int
	// CacheSize is the number of decoded documents kept in the loader's LRU cache.
	CacheSize int
}

type QueryConfig struct {
	// SafepointInterval is the number of produced documents between
	// cooperative scheduler yields during long scans.
	SafepointInterval int
	// MaxIncludeDepth bounds how many path segments an include
	// expression may descend through.
	MaxIncludeDepth int
}

type MaintenanceConfig struct {
	// Workers is the size of the background maintenance pool.
	Workers int
	// CompactionThreshold is the tombstone count per index that triggers
	// a background compaction job.
	CompactionThreshold int
}

type LoggingConfig struct {
	Level string
}

// Default returns the configuration used when nothing is provided.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			PageSize:  4 * 1024 * 1024,
			CacheSize: 1024,
		},
		Query: QueryConfig{
			SafepointInterval: 100,
			MaxIncludeDepth:   8,
		},
		Maintenance: MaintenanceConfig{
			Workers:             runtime.NumCPU(),
			CompactionThreshold: 1024,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional file and LITEDB_-prefixed
// environment variables, layered over the defaults.
// Env var mapping: LITEDB_QUERY_SAFEPOINTINTERVAL -> query.safepointinterval.
func Load(path string) (*Config, error) {
	cfg := Default()
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	const prefix = "LITEDB_"
	for _, envStr := range os.Environ() {
		pair := strings.SplitN(envStr, "=", 2)
		key, value := pair[0], pair[1]
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		propKey := strings.TrimPrefix(key, prefix)
		propKey = strings.ToLower(strings.ReplaceAll(propKey, "_", "."))
		if n, err := strconv.Atoi(value); err == nil {
			v.Set(propKey, n)
		} else {
			v.Set(propKey, value)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize replaces out-of-range values with their defaults.
func (c *Config) normalize() {
	def := Default()
	if c.Storage.PageSize <= 0 {
		c.Storage.PageSize = def.Storage.PageSize
	}
	if c.Storage.CacheSize <= 0 {
		c.Storage.CacheSize = def.Storage.CacheSize
	}
	if c.Query.SafepointInterval <= 0 {
		c.Query.SafepointInterval = def.Query.SafepointInterval
	}
	if c.Query.MaxIncludeDepth <= 0 {
		c.Query.MaxIncludeDepth = def.Query.MaxIncludeDepth
	}
	if c.Maintenance.Workers <= 0 {
		c.Maintenance.Workers = def.Maintenance.Workers
	}
	if c.Maintenance.CompactionThreshold <= 0 {
		c.Maintenance.CompactionThreshold = def.Maintenance.CompactionThreshold
	}
}
