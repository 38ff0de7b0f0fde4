// Package config loads cmd/lynx's on-disk settings. The teacher's own
// config package (pkg/config/executor_mode.go) toggled between two
// parser implementations via an environment variable and an
// atomic.Value, a concern this module has no second implementation to
// switch between; the env-var-override shape survives here, now over
// a YAML file describing which graph.Model backend to run against and
// how verbosely to log.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store names a graph.Model backend cmd/lynx can open.
type Store string

const (
	StoreMemory   Store = "memory"
	StoreBadger   Store = "badger"
	EnvStore            = "LYNX_STORE"
	EnvDataDir          = "LYNX_DATA_DIR"
	EnvLogLevel         = "LYNX_LOG_LEVEL"
)

// Config is cmd/lynx's full set of startup settings.
type Config struct {
	Store    Store  `yaml:"store"`
	DataDir  string `yaml:"dataDir"`
	LogLevel string `yaml:"logLevel"`
}

// Default returns the settings cmd/lynx runs with when no config file
// is given and no environment variable overrides apply: an in-memory
// store logging at info level.
func Default() Config {
	return Config{Store: StoreMemory, DataDir: "./lynx-data", LogLevel: "info"}
}

// Load reads a YAML config file at path, falling back to Default for
// any field the file omits, then applies environment variable
// overrides on top (LYNX_STORE, LYNX_DATA_DIR, LYNX_LOG_LEVEL),
// mirroring how the teacher let NORNICDB_EXECUTOR_MODE override its
// own default at process start. An empty path just returns Default
// with environment overrides applied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}
	if v := os.Getenv(EnvStore); v != "" {
		cfg.Store = Store(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}
