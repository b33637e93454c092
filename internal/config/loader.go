package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are filled by Merge over Defaults.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`

	WeightsDir     string `json:"weights_dir" yaml:"weights_dir" toml:"weights_dir"`
	WeightsPattern string `json:"weights_pattern" yaml:"weights_pattern" toml:"weights_pattern"`

	CacheDir        string `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`
	CacheBackend    string `json:"cache_backend" yaml:"cache_backend" toml:"cache_backend"`
	CacheMaxEntries int    `json:"cache_max_entries" yaml:"cache_max_entries" toml:"cache_max_entries"`

	Backend  string   `json:"backend" yaml:"backend" toml:"backend"`
	ExecBin  string   `json:"exec_bin" yaml:"exec_bin" toml:"exec_bin"`
	ExecArgs []string `json:"exec_args" yaml:"exec_args" toml:"exec_args"`

	MaxWorkers    int   `json:"max_workers" yaml:"max_workers" toml:"max_workers"`
	MaxQueueDepth int   `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitMS     int64 `json:"max_wait_ms" yaml:"max_wait_ms" toml:"max_wait_ms"`

	FetchTimeoutMS  int64 `json:"fetch_timeout_ms" yaml:"fetch_timeout_ms" toml:"fetch_timeout_ms"`
	MaxInputBytes   int64 `json:"max_input_bytes" yaml:"max_input_bytes" toml:"max_input_bytes"`
	MaxInputPixels  int64 `json:"max_input_pixels" yaml:"max_input_pixels" toml:"max_input_pixels"`
	MaxOutputPixels int64 `json:"max_output_pixels" yaml:"max_output_pixels" toml:"max_output_pixels"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	Swagger     bool     `json:"swagger" yaml:"swagger" toml:"swagger"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Addr:            ":8080",
		WeightsDir:      "~/.local/share/upscaled/weights",
		WeightsPattern:  "{model}_{scale}x",
		CacheDir:        "~/.cache/upscaled",
		CacheBackend:    "fs",
		Backend:         "resample",
		MaxWorkers:      runtime.NumCPU(),
		MaxQueueDepth:   32,
		MaxWaitMS:       30_000,
		FetchTimeoutMS:  30_000,
		MaxInputBytes:   32 << 20,
		MaxInputPixels:  4096 * 4096,
		MaxOutputPixels: 8192 * 8192,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Merge returns base with every non-zero field of over applied on top.
func Merge(base, over Config) Config {
	out := base
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setInt64 := func(dst *int64, v int64) {
		if v != 0 {
			*dst = v
		}
	}
	setStr(&out.Addr, over.Addr)
	setStr(&out.WeightsDir, over.WeightsDir)
	setStr(&out.WeightsPattern, over.WeightsPattern)
	setStr(&out.CacheDir, over.CacheDir)
	setStr(&out.CacheBackend, over.CacheBackend)
	setInt(&out.CacheMaxEntries, over.CacheMaxEntries)
	setStr(&out.Backend, over.Backend)
	setStr(&out.ExecBin, over.ExecBin)
	if len(over.ExecArgs) > 0 {
		out.ExecArgs = append([]string(nil), over.ExecArgs...)
	}
	setInt(&out.MaxWorkers, over.MaxWorkers)
	setInt(&out.MaxQueueDepth, over.MaxQueueDepth)
	setInt64(&out.MaxWaitMS, over.MaxWaitMS)
	setInt64(&out.FetchTimeoutMS, over.FetchTimeoutMS)
	setInt64(&out.MaxInputBytes, over.MaxInputBytes)
	setInt64(&out.MaxInputPixels, over.MaxInputPixels)
	setInt64(&out.MaxOutputPixels, over.MaxOutputPixels)
	setStr(&out.LogLevel, over.LogLevel)
	setStr(&out.LogFormat, over.LogFormat)
	if over.CORSEnabled {
		out.CORSEnabled = true
	}
	if len(over.CORSOrigins) > 0 {
		out.CORSOrigins = append([]string(nil), over.CORSOrigins...)
	}
	if over.Swagger {
		out.Swagger = true
	}
	return out
}

// FromEnv reads the UPSCALED_ADDR override.
func FromEnv() Config {
	return Config{Addr: os.Getenv("UPSCALED_ADDR")}
}

// Validate rejects values that cannot be served.
func (c Config) Validate() error {
	switch c.CacheBackend {
	case "fs", "sqlite":
	default:
		return fmt.Errorf("cache_backend must be fs or sqlite, got %q", c.CacheBackend)
	}
	switch c.Backend {
	case "resample":
	case "exec":
		if strings.TrimSpace(c.ExecBin) == "" {
			return fmt.Errorf("backend exec requires exec_bin")
		}
	default:
		return fmt.Errorf("backend must be resample or exec, got %q", c.Backend)
	}
	if c.CacheMaxEntries < 0 || c.MaxWorkers < 0 || c.MaxQueueDepth < 0 || c.MaxWaitMS < 0 || c.FetchTimeoutMS < 0 || c.MaxInputBytes < 0 ||
		c.MaxInputPixels < 0 || c.MaxOutputPixels < 0 {
		return fmt.Errorf("numeric limits must not be negative")
	}
	return nil
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
