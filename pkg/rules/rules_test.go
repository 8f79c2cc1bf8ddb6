package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ormasoftchile/mcpstd/pkg/document"
	"github.com/ormasoftchile/mcpstd/pkg/result"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

func loadContext(t *testing.T, body string) *document.ContextDocument {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample_context.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := document.NewLoader(false, nil).LoadContext(path)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestEvaluate(t *testing.T) {
	doc := loadContext(t, "version: 1.2.0\ntype: global\nowner: platform\nmetrics:\n  - {name: a}\n  - {name: b}\n")

	tests := []struct {
		name     string
		spec     standard.RuleSpec
		pass     bool
		errors   int
		warnings int
		severity result.Severity
	}{
		{"true", standard.RuleSpec{Name: "has-owner", Expr: `doc.owner != nil`}, true, 0, 0, 0},
		{"false default severity", standard.RuleSpec{Name: "has-team", Expr: `doc.team != nil`}, false, 1, 0, result.NonCritical},
		{"false critical", standard.RuleSpec{Name: "few-metrics", Expr: `len(doc.metrics) < 2`, Severity: "critical"}, false, 1, 0, result.Critical},
		{"false warning", standard.RuleSpec{Name: "global-only", Expr: `doc.owner == "nobody"`, Severity: "warning"}, true, 0, 1, 0},
		{"file and kind", standard.RuleSpec{Name: "ctx", Expr: `kind == "context" && file endsWith ".yaml"`}, true, 0, 0, 0},
		{"other kind skipped", standard.RuleSpec{Name: "schemas", AppliesTo: "schema", Expr: `false`}, true, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine([]standard.RuleSpec{tt.spec})
			if got := e.Evaluate("contexts/sample_context.yaml", doc); got != tt.pass {
				t.Errorf("Evaluate = %v, want %v", got, tt.pass)
			}
			c := e.Collector()
			if c.ErrorCount() != tt.errors || c.WarningCount() != tt.warnings {
				t.Fatalf("counts = %d/%d, want %d/%d", c.ErrorCount(), c.WarningCount(), tt.errors, tt.warnings)
			}
			if tt.errors > 0 {
				r := c.Results()[0]
				if r.Severity != tt.severity {
					t.Errorf("severity = %s, want %s", r.Severity, tt.severity)
				}
				if !strings.Contains(r.Message, "rule "+tt.spec.Name+" failed in sample_context.yaml") {
					t.Errorf("message = %q", r.Message)
				}
			}
		})
	}
}

func TestCustomMessage(t *testing.T) {
	doc := loadContext(t, "version: 1.2.0\ntype: global\n")
	e := NewEngine([]standard.RuleSpec{{Name: "owner", Expr: "doc.owner != nil", Message: "every context needs an owner"}})
	e.Evaluate("contexts/sample_context.yaml", doc)
	if got := e.Collector().Results()[0].Message; !strings.HasSuffix(got, ": every context needs an owner") {
		t.Errorf("message = %q", got)
	}
}

func TestCompileErrorReportedOnce(t *testing.T) {
	e := NewEngine([]standard.RuleSpec{{Name: "broken", Expr: "doc.(("}})
	if e.Collector().ErrorCount() != 1 {
		t.Fatalf("compile error count = %d", e.Collector().ErrorCount())
	}
	r := e.Collector().Results()[0]
	if r.Severity != result.Critical || !strings.Contains(r.Message, "rule broken does not compile") {
		t.Errorf("finding = %+v", r)
	}

	doc := loadContext(t, "version: 1.2.0\ntype: x\n")
	for i := 0; i < 3; i++ {
		e.Evaluate("contexts/a.yaml", doc)
	}
	if e.Collector().ErrorCount() != 1 {
		t.Errorf("compile error reported %d times", e.Collector().ErrorCount())
	}
}

func TestNonBoolRejectedAtCompile(t *testing.T) {
	e := NewEngine([]standard.RuleSpec{{Name: "count", Expr: `"not a bool"`}})
	if e.Collector().ErrorCount() != 1 {
		t.Errorf("non-bool expression should fail to compile: %v", e.Collector().Results())
	}
}

func TestApplies(t *testing.T) {
	tests := []struct {
		appliesTo string
		kind      document.Kind
		want      bool
	}{
		{"", document.KindSchema, true},
		{"all", document.KindContext, true},
		{"schema", document.KindSchema, true},
		{"schema", document.KindContext, false},
		{"context", document.KindContext, true},
	}
	for _, tt := range tests {
		r := &Rule{Spec: standard.RuleSpec{AppliesTo: tt.appliesTo}}
		if got := r.Applies(tt.kind); got != tt.want {
			t.Errorf("Applies(%q, %s) = %v", tt.appliesTo, tt.kind, got)
		}
	}
}
