package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and validates
// the result. Unknown keys are rejected. An empty document yields [Default].
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	c := cfg.Compare
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("compare.similarity_threshold %.2f is out of range (0, 1]", c.SimilarityThreshold))
	}
	if c.MatchScore < 0 {
		errs = append(errs, fmt.Errorf("compare.match_score %d must be positive", c.MatchScore))
	}
	if c.GapScore > 0 {
		errs = append(errs, fmt.Errorf("compare.gap_score %d must be negative", c.GapScore))
	}
	if c.Normalize != "" && !c.Normalize.IsValid() {
		errs = append(errs, fmt.Errorf("compare.normalize %q is invalid; valid values: none, nfc, nfkc", c.Normalize))
	}
	if c.SimilarityThreshold > 0 && c.SimilarityThreshold < 0.3 {
		slog.Warn("compare.similarity_threshold is very low; unrelated texts will be aligned word by word",
			"similarity_threshold", c.SimilarityThreshold,
		)
	}

	if cfg.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers %d must not be negative", cfg.Batch.Workers))
	}

	return errors.Join(errs...)
}
