// Package standard pins the constants every document is checked against:
// the standard version, directory layout, naming rules, JSON-RPC error code
// bands and severity SLAs. A Standard may be adjusted by a config file.
package standard

import (
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

// PinnedVersion is the standard version documents must declare.
const PinnedVersion = "1.2.0"

// Directory names of the standard layout.
const (
	DirSchemas  = "schemas"
	DirContexts = "contexts"
	DirTests    = "tests"
)

// ReportFile is written to the validated root.
const ReportFile = "validation_report.md"

// Band is an inclusive integer range.
type Band struct {
	Min int `yaml:"minimum" json:"minimum"`
	Max int `yaml:"maximum" json:"maximum"`
}

// Contains reports whether min <= n <= max.
func (b Band) Contains(n int) bool { return n >= b.Min && n <= b.Max }

// RequiredDir is one directory of the layout with its mandatory files.
type RequiredDir struct {
	Name        string
	Description string
	Files       []string
}

// NamingRule is an accepted filename pattern.
type NamingRule struct {
	Pattern     *regexp.Regexp
	Description string
}

// RuleSpec declares a custom expression rule (see package rules).
type RuleSpec struct {
	Name      string `yaml:"name"`
	AppliesTo string `yaml:"applies_to,omitempty"` // schema, context, all
	Expr      string `yaml:"expr"`
	Message   string `yaml:"message,omitempty"`
	Severity  string `yaml:"severity,omitempty"` // critical, non-critical, warning
}

// Standard is the full set of pinned expectations for one run.
type Standard struct {
	Version            Semver
	StandardErrorCodes []int
	StandardBand       Band
	ServerBand         Band
	Layout             []RequiredDir
	NamingRules        []NamingRule
	SLA                map[string]int // error_severity level -> max minutes
	NormalizeEncoding  bool
	Ignore             []string
	Rules              []RuleSpec
}

// Default returns the standard as pinned at PinnedVersion.
func Default() *Standard {
	return &Standard{
		Version:            MustParseSemver(PinnedVersion),
		StandardErrorCodes: []int{-32700, -32600, -32601, -32602, -32603},
		StandardBand:       Band{Min: -32700, Max: -32603},
		ServerBand:         Band{Min: -32099, Max: -32000},
		Layout: []RequiredDir{
			{
				Name:        DirSchemas,
				Description: "schema definitions",
				Files: []string{
					"process_schema.yaml",
					"validation_schema.yaml",
					"context_schema.yaml",
					"error_schema.yaml",
				},
			},
			{
				Name:        DirContexts,
				Description: "context definitions",
				Files: []string{
					"global_context.yaml",
					"mcp_context.yaml",
					"process_context.yaml",
					"async_storage_patterns.yaml",
					"unified_metrics.yaml",
				},
			},
			{
				Name:        DirTests,
				Description: "test scripts",
				Files: []string{
					"README.md",
					"run_tests.py",
					"validate_schemas.py",
					"test_async_performance.py",
					"test_security.py",
				},
			},
		},
		NamingRules: []NamingRule{
			{regexp.MustCompile(`^[a-z][a-z0-9_]*\.yaml$`), "YAML configuration file"},
			{regexp.MustCompile(`^[a-z][a-z0-9_]*\.py$`), "Python script"},
			{regexp.MustCompile(`^test_[a-z][a-z0-9_]*\.py$`), "test script"},
			{regexp.MustCompile(`^[A-Z][A-Z0-9_]*\.md$`), "documentation file"},
		},
		SLA: map[string]int{
			"critical":     15,
			"non-critical": 60,
		},
		NormalizeEncoding: true,
	}
}

// IsStandardCode reports whether code is one of the recognised JSON-RPC codes.
func (s *Standard) IsStandardCode(code int) bool {
	for _, c := range s.StandardErrorCodes {
		if c == code {
			return true
		}
	}
	return false
}

// Ignored reports whether rel (a path relative to the validated root) matches
// any ignore glob.
func (s *Standard) Ignored(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.Ignore {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
