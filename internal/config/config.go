package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GapPolicy selects how gap re-evaluation treats new evidence.
type GapPolicy string

const (
	// PolicyResolveOnEvidence resolves a gap as soon as any new evidence arrives.
	PolicyResolveOnEvidence GapPolicy = "resolve-on-evidence"
	// PolicyStrict re-runs the originating criterion check against the
	// augmented corpus before resolving.
	PolicyStrict GapPolicy = "strict"
)

// Config represents the complete bpa configuration (v1 schema)
type Config struct {
	Version      int    `json:"version" mapstructure:"version"`
	RegistryPath string `json:"registryPath" mapstructure:"registryPath"`

	Extractor ExtractorConfig `json:"extractor" mapstructure:"extractor"`
	Matrix    MatrixConfig    `json:"matrix" mapstructure:"matrix"`
	Audit     AuditConfig     `json:"audit" mapstructure:"audit"`
	Gaps      GapsConfig      `json:"gaps" mapstructure:"gaps"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// ExtractorConfig bounds the evidence extractor
type ExtractorConfig struct {
	MinFragmentLen int `json:"minFragmentLen" mapstructure:"minFragmentLen"`
	MaxFragmentLen int `json:"maxFragmentLen" mapstructure:"maxFragmentLen"`
	MaxFragments   int `json:"maxFragments" mapstructure:"maxFragments"`
}

// MatrixConfig contains matrix aggregation constants
type MatrixConfig struct {
	LabelMaxLen      int `json:"labelMaxLen" mapstructure:"labelMaxLen"`
	ClarityBase      int `json:"clarityBase" mapstructure:"clarityBase"`
	ClarityStep      int `json:"clarityStep" mapstructure:"clarityStep"`
	RetroFeedClarity int `json:"retroFeedClarity" mapstructure:"retroFeedClarity"`
}

// AuditConfig contains audit engine thresholds
type AuditConfig struct {
	MinCorpusLen   int `json:"minCorpusLen" mapstructure:"minCorpusLen"`
	ReadinessFloor int `json:"readinessFloor" mapstructure:"readinessFloor"`
	EmptyReadiness int `json:"emptyReadiness" mapstructure:"emptyReadiness"`
}

// GapsConfig contains gap lifecycle policy
type GapsConfig struct {
	Policy          GapPolicy `json:"policy" mapstructure:"policy"`
	ReadinessDeltaA int       `json:"readinessDeltaA" mapstructure:"readinessDeltaA"`
	ReadinessDeltaB int       `json:"readinessDeltaB" mapstructure:"readinessDeltaB"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:      1,
		RegistryPath: "",
		Extractor: ExtractorConfig{
			MinFragmentLen: 20,
			MaxFragmentLen: 2000,
			MaxFragments:   5,
		},
		Matrix: MatrixConfig{
			LabelMaxLen:      90,
			ClarityBase:      10,
			ClarityStep:      18,
			RetroFeedClarity: 5,
		},
		Audit: AuditConfig{
			MinCorpusLen:   10,
			ReadinessFloor: 10,
			EmptyReadiness: 5,
		},
		Gaps: GapsConfig{
			Policy:          PolicyResolveOnEvidence,
			ReadinessDeltaA: 15,
			ReadinessDeltaB: 10,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .bpa/config.json under workspaceRoot.
// A missing file yields the defaults.
func LoadConfig(workspaceRoot string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(workspaceRoot, ".bpa"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to .bpa/config.json under workspaceRoot
func (c *Config) Save(workspaceRoot string) error {
	dir := filepath.Join(workspaceRoot, ".bpa")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Extractor.MinFragmentLen <= 0 || c.Extractor.MaxFragmentLen <= c.Extractor.MinFragmentLen {
		return &ConfigError{Field: "extractor", Message: "fragment length bounds must satisfy 0 < min < max"}
	}
	if c.Extractor.MaxFragments <= 0 {
		return &ConfigError{Field: "extractor.maxFragments", Message: "must be positive"}
	}
	if c.Matrix.ClarityBase < 0 || c.Matrix.ClarityStep <= 0 {
		return &ConfigError{Field: "matrix", Message: "clarity constants must be non-negative with a positive step"}
	}
	if c.Audit.EmptyReadiness < 0 || c.Audit.ReadinessFloor < c.Audit.EmptyReadiness {
		return &ConfigError{Field: "audit", Message: "readiness floor must be at or above the empty-corpus readiness"}
	}
	switch c.Gaps.Policy {
	case PolicyResolveOnEvidence, PolicyStrict:
	default:
		return &ConfigError{Field: "gaps.policy", Message: "unknown policy"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
