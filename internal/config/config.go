// Package config provides the configuration schema and loader for dictacheck.
package config

import (
	"log/slog"
	"runtime"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to a [slog.Level]. Unknown and empty levels map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Normalize selects the Unicode normal form applied to texts before they are
// compared.
type Normalize string

const (
	NormalizeNone Normalize = "none"
	NormalizeNFC  Normalize = "nfc"
	NormalizeNFKC Normalize = "nfkc"
)

// IsValid reports whether n is a recognised normal form.
func (n Normalize) IsValid() bool {
	switch n {
	case NormalizeNone, NormalizeNFC, NormalizeNFKC:
		return true
	}
	return false
}

// Defaults applied by [Config.ApplyDefaults].
const (
	DefaultSimilarityThreshold = 0.6
	DefaultMatchScore          = 2
	DefaultGapScore            = -2
	DefaultServiceName         = "dictacheck"
)

// Config is the root configuration structure for dictacheck.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Compare   CompareConfig   `yaml:"compare"`
	Batch     BatchConfig     `yaml:"batch"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds logging settings and the operations endpoint address.
type ServerConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// ListenAddr is the TCP address of the operations endpoint serving
	// /metrics, /healthz and /readyz (e.g., ":9090"). Empty disables it.
	ListenAddr string `yaml:"listen_addr"`
}

// CompareConfig tunes the comparison engine.
type CompareConfig struct {
	// SimilarityThreshold is the whole-text similarity below which texts are
	// reported as one span without word alignment. Range (0, 1].
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// MatchScore rewards two equal words in the alignment. Must be positive.
	MatchScore int `yaml:"match_score"`

	// GapScore penalises a word present in only one text. Must be negative.
	GapScore int `yaml:"gap_score"`

	// CharHints adds letter-level detail to every reported span.
	CharHints bool `yaml:"char_hints"`

	// Normalize is the Unicode normal form applied before comparing.
	Normalize Normalize `yaml:"normalize"`
}

// BatchConfig controls JSONL batch runs.
type BatchConfig struct {
	// Workers is the number of comparisons run concurrently. 0 means
	// GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// TelemetryConfig sets the identity reported in metrics and traces.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every zero-valued field with its default.
func (c *Config) ApplyDefaults() {
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Compare.SimilarityThreshold == 0 {
		c.Compare.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.Compare.MatchScore == 0 {
		c.Compare.MatchScore = DefaultMatchScore
	}
	if c.Compare.GapScore == 0 {
		c.Compare.GapScore = DefaultGapScore
	}
	if c.Compare.Normalize == "" {
		c.Compare.Normalize = NormalizeNone
	}
	if c.Batch.Workers == 0 {
		c.Batch.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
}
