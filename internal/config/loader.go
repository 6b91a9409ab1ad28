package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taleforge/taleforge/internal/game"
)

// apiKeyEnv is the environment variable consulted when narration.api_key is
// not set in the config file.
const apiKeyEnv = "GEMINI_API_KEY"

// Defaults applied by [Load] and [LoadFromReader] for fields left empty.
const (
	DefaultListenAddr     = ":8080"
	DefaultConnectTimeout = 15 * time.Second
	DefaultRuleset        = "dnd5e"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
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

// LoadFromReader decodes a YAML config from r, applies defaults and the
// GEMINI_API_KEY environment fallback, and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills empty fields with their documented defaults and pulls
// the API key from the environment when the file leaves it unset.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Narration.APIKey == "" {
		cfg.Narration.APIKey = os.Getenv(apiKeyEnv)
	}
	if cfg.Narration.Language == "" {
		cfg.Narration.Language = LangEnglish
	}
	if cfg.Narration.ConnectTimeout <= 0 {
		cfg.Narration.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.Campaign.Ruleset == "" {
		cfg.Campaign.Ruleset = DefaultRuleset
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Narration.Language != "" && !cfg.Narration.Language.IsValid() {
		errs = append(errs, fmt.Errorf("narration.language %q is invalid; valid values: en, tr, ru", cfg.Narration.Language))
	}
	if cfg.Narration.ConnectTimeout < 0 {
		errs = append(errs, fmt.Errorf("narration.connect_timeout %s is negative", cfg.Narration.ConnectTimeout))
	}
	if cfg.Campaign.Ruleset != "" {
		if _, ok := game.RulesetByKey(cfg.Campaign.Ruleset); !ok {
			errs = append(errs, fmt.Errorf("campaign.ruleset %q is unknown; valid values: %v", cfg.Campaign.Ruleset, game.RulesetKeys()))
		}
	}

	// A missing key only blocks session connects, not server startup, so it
	// warns instead of failing validation.
	if cfg.Narration.APIKey == "" {
		slog.Warn("narration.api_key is empty and " + apiKeyEnv + " is not set; sessions will fail to connect")
	}

	return errors.Join(errs...)
}
