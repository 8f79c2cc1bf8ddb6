package standard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ConfigFile is looked up in the validated root when no config is given.
const ConfigFile = ".mcpstd.yaml"

// ConfigEnv names a config file when no --config flag is passed.
const ConfigEnv = "MCPSTD_CONFIG"

// Config overrides parts of the default Standard.
type Config struct {
	Version           string     `yaml:"version,omitempty"`
	ServerErrorBand   *Band      `yaml:"server_error_band,omitempty"`
	NormalizeEncoding *bool      `yaml:"normalize_encoding,omitempty"`
	Ignore            []string   `yaml:"ignore,omitempty"`
	Rules             []RuleSpec `yaml:"rules,omitempty"`
}

// LoadConfigFile reads and strictly decodes a config file.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return LoadConfig(f)
}

// LoadConfig strictly decodes a config from r. Unknown keys are rejected.
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil // empty file
		}
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Apply validates c and writes its overrides into s.
func (c *Config) Apply(s *Standard) error {
	if c == nil {
		return nil
	}
	if c.Version != "" {
		v, err := ParseSemver(c.Version)
		if err != nil {
			return fmt.Errorf("config version: %w", err)
		}
		s.Version = v
	}
	if b := c.ServerErrorBand; b != nil {
		if b.Min > b.Max {
			return fmt.Errorf("config server_error_band: minimum %d > maximum %d", b.Min, b.Max)
		}
		if b.Min <= s.StandardBand.Max && b.Max >= s.StandardBand.Min {
			return fmt.Errorf("config server_error_band [%d,%d] overlaps the standard band [%d,%d]",
				b.Min, b.Max, s.StandardBand.Min, s.StandardBand.Max)
		}
		s.ServerBand = *b
	}
	if c.NormalizeEncoding != nil {
		s.NormalizeEncoding = *c.NormalizeEncoding
	}
	for _, p := range c.Ignore {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("config ignore: invalid glob %q", p)
		}
	}
	s.Ignore = append(s.Ignore, c.Ignore...)

	seen := make(map[string]bool, len(c.Rules))
	for i, r := range c.Rules {
		if r.Name == "" {
			return fmt.Errorf("config rules[%d]: name is required", i)
		}
		if r.Expr == "" {
			return fmt.Errorf("config rule %q: expr is required", r.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("config rule %q: duplicate name", r.Name)
		}
		seen[r.Name] = true
		switch r.AppliesTo {
		case "", "all", "schema", "context":
		default:
			return fmt.Errorf("config rule %q: applies_to must be schema, context or all, got %q", r.Name, r.AppliesTo)
		}
		switch r.Severity {
		case "", "critical", "non-critical", "warning":
		default:
			return fmt.Errorf("config rule %q: severity must be critical, non-critical or warning, got %q", r.Name, r.Severity)
		}
	}
	s.Rules = append(s.Rules, c.Rules...)
	return nil
}

// Resolve builds the Standard for root. The config is taken from explicit,
// then $MCPSTD_CONFIG, then <root>/.mcpstd.yaml if it exists. The returned
// path is empty when no config was used.
func Resolve(root, explicit string) (*Standard, string, error) {
	s := Default()

	path := explicit
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path == "" {
		candidate := filepath.Join(root, ConfigFile)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			path = candidate
		}
	}
	if path == "" {
		return s, "", nil
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, path, err
	}
	if err := cfg.Apply(s); err != nil {
		return nil, path, err
	}
	return s, path, nil
}
