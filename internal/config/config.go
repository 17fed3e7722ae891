package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the ambient settings the Operation Dispatcher and GC driver
// are constructed from: depot search order, GC defaults, precompile
// scheduler defaults, and logging (spec §3.2, §4.8, §4.10).
type Config struct {
	// DepotRoots lists depot directories in search order, first entry
	// writable (spec §3.1). Empty by default; set from the config file
	// or JULIA_DEPOT_PATH.
	DepotRoots []string `yaml:"depot_roots"`

	GC         GCConfig         `yaml:"gc"`
	Precompile PrecompileConfig `yaml:"precompile"`
	Log        LogConfig        `yaml:"log"`
}

type GCConfig struct {
	// CollectDelay is the default grace period before an unreachable
	// package becomes collectible (spec §4.10).
	CollectDelay time.Duration `yaml:"collect_delay"`
}

type PrecompileConfig struct {
	// Auto holds the auto-precompile setting from the config file,
	// overridden by JULIA_PKG_PRECOMPILE_AUTO. The dispatcher does not
	// read this field; it checks JULIA_PKG_PRECOMPILE_AUTO itself.
	Auto bool `yaml:"auto"`

	// Parallelism holds the compile concurrency from the config file,
	// overridden by JULIA_NUM_PRECOMPILE_TASKS. It is not passed to the
	// scheduler, which reads JULIA_NUM_PRECOMPILE_TASKS itself and
	// otherwise uses runtime.NumCPU()+1.
	Parallelism int `yaml:"parallelism"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Verbose bool   `yaml:"verbose"`
}

func DefaultConfig() *Config {
	return &Config{
		DepotRoots: nil,
		GC: GCConfig{
			CollectDelay: 7 * 24 * time.Hour,
		},
		Precompile: PrecompileConfig{
			Auto:        true,
			Parallelism: 0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration using the real environment.
func Load() (*Config, error) {
	return LoadWithEnv(os.Getenv)
}

// LoadWithEnv loads configuration using the provided environment lookup
// function. This allows tests to provide isolated environment values.
func LoadWithEnv(getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPathWithEnv(getenv)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment variables override the config file (spec §6).
	if depot := getenv("JULIA_DEPOT_PATH"); depot != "" {
		cfg.DepotRoots = strings.Split(depot, string(os.PathListSeparator))
	}

	if auto := getenv("JULIA_PKG_PRECOMPILE_AUTO"); auto != "" {
		cfg.Precompile.Auto = auto != "0"
	}

	if tasks := getenv("JULIA_NUM_PRECOMPILE_TASKS"); tasks != "" {
		if n, err := strconv.Atoi(tasks); err == nil && n > 0 {
			cfg.Precompile.Parallelism = n
		}
	}

	return cfg, nil
}

func getConfigPath() string {
	return getConfigPathWithEnv(os.Getenv)
}

func getConfigPathWithEnv(getenv func(string) string) string {
	if xdgConfig := getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "pkgctl", "config.yaml")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pkgctl", "config.yaml")
}
