package standard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSemver(t *testing.T) {
	tests := []struct {
		in      string
		want    Semver
		wantErr bool
	}{
		{"1.2.0", Semver{1, 2, 0}, false},
		{"10.20.30", Semver{10, 20, 30}, false},
		{"1.2", Semver{}, true},
		{"v1.2.0", Semver{}, true},
		{"1.2.0-rc1", Semver{}, true},
		{"", Semver{}, true},
	}
	for _, tt := range tests {
		got, err := ParseSemver(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSemver(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSemver(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		required, actual string
		want             bool
	}{
		{"1.2.0", "1.2.1", true},
		{"1.2.0", "1.2.0", true},
		{"1.2.0", "1.3.0", true},
		{"1.2.5", "1.3.0", true},
		{"1.2.0", "1.1.9", false},
		{"1.2.3", "1.2.2", false},
		{"1.2.0", "2.0.0", false},
		{"2.0.0", "1.9.9", false},
		{"1.2.0", "garbage", false},
	}
	for _, tt := range tests {
		if got := CompatibleStrings(tt.required, tt.actual); got != tt.want {
			t.Errorf("Compatible(%s, %s) = %v, want %v", tt.required, tt.actual, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	s := Default()
	if s.Version.String() != PinnedVersion {
		t.Errorf("version = %s", s.Version)
	}
	if !s.ServerBand.Contains(-32050) || s.ServerBand.Contains(-32500) {
		t.Errorf("server band = %+v", s.ServerBand)
	}
	if !s.IsStandardCode(-32601) || s.IsStandardCode(-32650) {
		t.Error("standard code lookup wrong")
	}
	if len(s.Layout) != 3 {
		t.Errorf("layout dirs = %d, want 3", len(s.Layout))
	}
}

func TestLoadConfig_UnknownField(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("bogus: 1\n"))
	if err == nil {
		t.Fatal("expected error for unknown config key")
	}
}

func TestLoadConfig_Empty(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Version != "" || len(cfg.Rules) != 0 {
		t.Errorf("empty config = %+v", cfg)
	}
}

func TestConfigApply(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`
version: 1.3.0
server_error_band: {minimum: -32599, maximum: -32000}
normalize_encoding: false
ignore:
  - "contexts/drafts/**"
rules:
  - name: has-type
    expr: doc.type != nil
    severity: warning
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s := Default()
	if err := cfg.Apply(s); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s.Version != (Semver{1, 3, 0}) {
		t.Errorf("version = %v", s.Version)
	}
	if s.ServerBand != (Band{-32599, -32000}) {
		t.Errorf("band = %+v", s.ServerBand)
	}
	if s.NormalizeEncoding {
		t.Error("normalize_encoding override not applied")
	}
	if !s.Ignored("contexts/drafts/x.yaml") {
		t.Error("ignore glob not applied")
	}
	if s.Ignored("contexts/global_context.yaml") {
		t.Error("ignore glob too broad")
	}
	if len(s.Rules) != 1 {
		t.Errorf("rules = %d", len(s.Rules))
	}
}

func TestConfigApply_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad version", Config{Version: "1.2"}},
		{"inverted band", Config{ServerErrorBand: &Band{Min: -32000, Max: -32099}}},
		{"band overlaps standard", Config{ServerErrorBand: &Band{Min: -32700, Max: -32000}}},
		{"bad glob", Config{Ignore: []string{"[unclosed"}}},
		{"rule without name", Config{Rules: []RuleSpec{{Expr: "true"}}}},
		{"rule without expr", Config{Rules: []RuleSpec{{Name: "r"}}}},
		{"duplicate rule", Config{Rules: []RuleSpec{{Name: "r", Expr: "true"}, {Name: "r", Expr: "true"}}}},
		{"bad applies_to", Config{Rules: []RuleSpec{{Name: "r", Expr: "true", AppliesTo: "tests"}}}},
		{"bad severity", Config{Rules: []RuleSpec{{Name: "r", Expr: "true", Severity: "fatal"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Apply(Default()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResolve_RootConfig(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ConfigFile), []byte("version: 2.0.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, path, err := Resolve(root, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if path == "" {
		t.Error("expected config path to be reported")
	}
	if s.Version != (Semver{2, 0, 0}) {
		t.Errorf("version = %v", s.Version)
	}
}

func TestResolve_NoConfig(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	s, path, err := Resolve(t.TempDir(), "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	if s.Version.String() != PinnedVersion {
		t.Errorf("version = %v", s.Version)
	}
}
