package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Extractor.MaxFragments != 5 {
		t.Errorf("MaxFragments = %d, want 5", cfg.Extractor.MaxFragments)
	}
	if cfg.Matrix.ClarityBase != 10 || cfg.Matrix.ClarityStep != 18 {
		t.Errorf("clarity constants = %d/%d, want 10/18",
			cfg.Matrix.ClarityBase, cfg.Matrix.ClarityStep)
	}
	if cfg.Gaps.Policy != PolicyResolveOnEvidence {
		t.Errorf("Policy = %q, want resolve-on-evidence", cfg.Gaps.Policy)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Audit.EmptyReadiness != 5 {
		t.Errorf("missing file should yield defaults, got EmptyReadiness=%d", cfg.Audit.EmptyReadiness)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.Gaps.Policy = PolicyStrict
	cfg.Extractor.MaxFragments = 7
	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, ".bpa", "config.json")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Gaps.Policy != PolicyStrict {
		t.Errorf("Policy = %q, want strict", loaded.Gaps.Policy)
	}
	if loaded.Extractor.MaxFragments != 7 {
		t.Errorf("MaxFragments = %d, want 7", loaded.Extractor.MaxFragments)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"bad version", func(c *Config) { c.Version = 2 }, true},
		{"inverted fragment bounds", func(c *Config) { c.Extractor.MaxFragmentLen = 5 }, true},
		{"zero max fragments", func(c *Config) { c.Extractor.MaxFragments = 0 }, true},
		{"zero clarity step", func(c *Config) { c.Matrix.ClarityStep = 0 }, true},
		{"floor below empty readiness", func(c *Config) { c.Audit.ReadinessFloor = 1 }, true},
		{"unknown policy", func(c *Config) { c.Gaps.Policy = "lenient" }, true},
		{"strict policy", func(c *Config) { c.Gaps.Policy = PolicyStrict }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
