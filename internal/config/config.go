// Package config provides configuration loading for debugassist.
package config

import (
	"fmt"
)

// Config is the full debugassist configuration.
type Config struct {
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Policy    PolicyConfig    `koanf:"policy"`
	Retrieval RetrievalConfig `koanf:"retrieval"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ArtifactsConfig locates the training artifacts loaded at startup.
type ArtifactsConfig struct {
	// Vectorizer is the fitted TF-IDF artifact path.
	Vectorizer string `koanf:"vectorizer"`

	// Classifier is the fitted classifier artifact path.
	Classifier string `koanf:"classifier"`

	// Corpus is the labeled historical-case CSV path.
	Corpus string `koanf:"corpus"`

	// Playbooks is the playbook YAML path. Empty selects the embedded
	// default mapping.
	Playbooks string `koanf:"playbooks"`
}

// PolicyConfig holds confidence policy tunables.
type PolicyConfig struct {
	// Threshold is the trust cut for the top class probability. A nil
	// pointer means unset and selects the default of 0.6; an explicit 0
	// is a valid configured value (every answer trusted).
	Threshold *float64 `koanf:"threshold"`

	// Alternatives is how many candidates the hedged branch surfaces.
	Alternatives int `koanf:"alternatives"`
}

// RetrievalConfig holds similarity retrieval tunables.
type RetrievalConfig struct {
	// TopK is how many similar solved cases a trusted answer includes.
	TopK int `koanf:"top_k"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Artifacts.Vectorizer == "" {
		cfg.Artifacts.Vectorizer = "models/tfidf.json"
	}
	if cfg.Artifacts.Classifier == "" {
		cfg.Artifacts.Classifier = "models/classifier.json"
	}
	if cfg.Artifacts.Corpus == "" {
		cfg.Artifacts.Corpus = "data/debug_cases.csv"
	}

	if cfg.Policy.Threshold == nil {
		threshold := 0.6
		cfg.Policy.Threshold = &threshold
	}
	if cfg.Policy.Alternatives == 0 {
		cfg.Policy.Alternatives = 3
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate checks the configuration for values no component can accept.
func (c *Config) Validate() error {
	if c.Policy.Threshold == nil {
		return fmt.Errorf("policy.threshold is not set")
	}
	if *c.Policy.Threshold < 0 || *c.Policy.Threshold > 1 {
		return fmt.Errorf("policy.threshold must be within [0,1], got %v", *c.Policy.Threshold)
	}
	if c.Policy.Alternatives < 1 {
		return fmt.Errorf("policy.alternatives must be >= 1, got %d", c.Policy.Alternatives)
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval.top_k must be >= 1, got %d", c.Retrieval.TopK)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
