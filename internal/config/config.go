// Package config loads and validates the YAML rule configuration. All
// pattern, predicate, and template problems surface here, at load time;
// the planner and executor run against pre-validated rules only.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v2"

	"github.com/sfo-dev/sfo/internal/core/types"
	"github.com/sfo-dev/sfo/internal/env"
	"github.com/sfo-dev/sfo/internal/rule"
	"github.com/sfo-dev/sfo/internal/template"
)

// Config is the parsed configuration file.
type Config struct {
	Rules []rule.Spec `yaml:"rules"`

	// Fallback is the catch-all destination template for unmatched files.
	Fallback string `yaml:"fallback"`

	Collision string `yaml:"collision" validate:"omitempty,oneof=rename overwrite skip"`
	Operation string `yaml:"operation" validate:"omitempty,oneof=move copy"`

	// Ignore globs are matched against source-relative paths; matches are
	// excluded from discovery.
	Ignore []string `yaml:"ignore"`

	// TrashDir enables staging through this directory when set.
	TrashDir string `yaml:"trash_dir" validate:"dirpathAnyOS"`

	Logging Logging `yaml:"logging"`

	// Compiled rules, in declaration order.
	compiled []*rule.Rule
	// Fingerprint of the raw config bytes, recorded in the manifest.
	fingerprint string
}

// Logging controls the debug log sink.
type Logging struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Parse loads the config at path (or the default location when path is
// empty), validates it, and compiles its rules. Any error returned here is
// a configuration error and fatal before any filesystem mutation.
func Parse(path string) (*Config, error) {
	if path == "" {
		path = env.SFO_CONFIG_PATH
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config not found: %s (run `sfo init` to create one)", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validateAndCompile(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	sum := sha256.Sum256(raw)
	cfg.fingerprint = hex.EncodeToString(sum[:6])
	return cfg, nil
}

func (c *Config) validateAndCompile() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	compiled, err := rule.CompileAll(c.Rules)
	if err != nil {
		return err
	}
	c.compiled = compiled

	for _, g := range c.Ignore {
		if _, err := glob.Compile(g); err != nil {
			return fmt.Errorf("invalid ignore glob %q: %v", g, err)
		}
	}

	// The fallback must resolve for any file, so it is restricted to the
	// fixed placeholder set; captures are not available on the fallback
	// path.
	probe := types.FileRecord{Name: "probe", Ext: "txt", ModTime: time.Now()}
	if _, err := template.Resolve(c.Fallback, probe, nil); err != nil {
		return fmt.Errorf("fallback template: %w (allowed placeholders: %v)", err, template.Placeholders())
	}

	return nil
}

// CompiledRules returns the ordered, compiled rule list.
func (c *Config) CompiledRules() []*rule.Rule {
	return c.compiled
}

// Fingerprint identifies the exact config content a run used.
func (c *Config) Fingerprint() string {
	return c.fingerprint
}

// CollisionPolicy returns the configured policy as its typed value.
func (c *Config) CollisionPolicy() types.CollisionPolicy {
	return types.CollisionPolicy(c.Collision)
}

// OperationMode returns the configured operation as its typed value.
func (c *Config) OperationMode() types.Operation {
	return types.Operation(c.Operation)
}
