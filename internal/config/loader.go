package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidAIProviders lists the known AI provider names. Used by [Validate]
// to warn about likely typos without rejecting third-party backends.
var ValidAIProviders = []string{
	"openai", "anthropic", "gemini", "ollama", "deepseek",
	"mistral", "groq", "llamacpp", "llamafile",
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
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

// LoadFromReader decodes a YAML config from r and validates the result.
// Unknown YAML fields are rejected so typos fail loudly at startup.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
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
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, fmt.Errorf("server.tls requires both cert_file and key_file"))
		}
	}

	if cfg.AI.Provider != "" {
		if !slices.Contains(ValidAIProviders, cfg.AI.Provider) {
			slog.Warn("unknown AI provider name, may be a typo or third-party provider",
				"provider", cfg.AI.Provider,
				"known", ValidAIProviders,
			)
		}
		if cfg.AI.Model == "" {
			errs = append(errs, fmt.Errorf("ai.model is required when ai.provider is set"))
		}
		if cfg.AI.Mode != "" && !cfg.AI.Mode.IsValid() {
			errs = append(errs, fmt.Errorf("ai.mode %q is invalid; valid values: standard, sentinel", cfg.AI.Mode))
		}
		if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
			errs = append(errs, fmt.Errorf("ai.temperature %.2f is out of range [0, 2]", cfg.AI.Temperature))
		}
		for i, fb := range cfg.AI.Fallbacks {
			if fb.Provider == "" || fb.Model == "" {
				errs = append(errs, fmt.Errorf("ai.fallbacks[%d] requires both provider and model", i))
			}
		}
	} else if len(cfg.AI.Fallbacks) > 0 {
		errs = append(errs, fmt.Errorf("ai.fallbacks requires ai.provider to be set"))
	}

	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; the user vocabulary will not survive restarts")
	}

	if cfg.Learning.ProposeThreshold < 0 {
		errs = append(errs, fmt.Errorf("learning.propose_threshold must not be negative"))
	}

	for pattern, correction := range cfg.Pipeline.SilentErrors {
		if pattern == "" || correction == "" {
			errs = append(errs, fmt.Errorf("pipeline.silent_errors entries must have non-empty pattern and correction"))
			break
		}
	}

	namesSeen := make(map[string]int, len(cfg.Templates))
	for i, t := range cfg.Templates {
		prefix := fmt.Sprintf("templates[%d]", i)
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if prev, ok := namesSeen[t.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of templates[%d]", prefix, t.Name, prev))
		}
		namesSeen[t.Name] = i
		if t.Content == "" {
			errs = append(errs, fmt.Errorf("%s.content is required", prefix))
		}
	}

	return errors.Join(errs...)
}
