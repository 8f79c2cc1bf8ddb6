package diagram

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeContexts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func ctx(refs ...string) string {
	body := "version: 1.2.0\ntype: test\n"
	if len(refs) > 0 {
		body += "context_references: [" + strings.Join(refs, ", ") + "]\n"
	}
	return body
}

func TestBuild(t *testing.T) {
	dir := writeContexts(t, map[string]string{
		"a.yaml":   ctx("b", "c"),
		"b.yaml":   ctx("a", "ghost"),
		"c.yaml":   ctx(),
		"bad.yaml": "[unclosed",
	})
	g, err := Build(dir, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var names []string
	for _, n := range g.Nodes {
		names = append(names, n.Name)
	}
	if diff := cmp.Diff([]string{"a.yaml", "b.yaml", "bad.yaml", "c.yaml"}, names); diff != "" {
		t.Errorf("nodes (-want +got):\n%s", diff)
	}
	if g.Nodes[2].Broken == "" {
		t.Error("bad.yaml should be broken")
	}
	if g.Nodes[0].Type != "test" || g.Nodes[0].Version != "1.2.0" {
		t.Errorf("node a = %+v", g.Nodes[0])
	}

	want := []Edge{
		{From: "a.yaml", To: "b.yaml"},
		{From: "a.yaml", To: "c.yaml"},
		{From: "b.yaml", To: "a.yaml", Cycle: true},
		{From: "b.yaml", To: "ghost.yaml", Missing: true},
	}
	if diff := cmp.Diff(want, g.Edges); diff != "" {
		t.Errorf("edges (-want +got):\n%s", diff)
	}
	if !g.HasCycle() {
		t.Error("HasCycle = false")
	}
}

func TestBuildSelfReference(t *testing.T) {
	g, err := Build(writeContexts(t, map[string]string{"self.yaml": ctx("self")}), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Edges) != 1 || !g.Edges[0].Cycle {
		t.Errorf("edges = %+v", g.Edges)
	}
}

func TestBuildDiamondIsNotACycle(t *testing.T) {
	g, err := Build(writeContexts(t, map[string]string{
		"a.yaml": ctx("b", "c"),
		"b.yaml": ctx("d"),
		"c.yaml": ctx("d"),
		"d.yaml": ctx(),
	}), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if g.HasCycle() {
		t.Errorf("diamond flagged as cycle: %+v", g.Edges)
	}
}

func TestBuildSkip(t *testing.T) {
	dir := writeContexts(t, map[string]string{"a.yaml": ctx("b"), "b.yaml": ctx()})
	g, err := Build(dir, nil, func(name string) bool { return name == "b.yaml" })
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 1 || !g.Edges[0].Missing {
		t.Errorf("graph = %+v", g)
	}
}

func TestBuildMissingDirectory(t *testing.T) {
	if _, err := Build(filepath.Join(t.TempDir(), "nope"), nil, nil); err == nil {
		t.Fatal("expected an error")
	}
}

func TestGenerateMermaid(t *testing.T) {
	g := &Graph{
		Nodes: []Node{{Name: "a-ctx.yaml", Type: "global"}, {Name: "b.yaml", Broken: "syntax"}},
		Edges: []Edge{
			{From: "a-ctx.yaml", To: "b.yaml"},
			{From: "b.yaml", To: "a-ctx.yaml", Cycle: true},
			{From: "a-ctx.yaml", To: "gone.yaml", Missing: true},
		},
	}
	out, err := Generate(g, FormatMermaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"flowchart LR\n",
		`a_ctx_yaml["a-ctx.yaml<br/>global"]`,
		`b_yaml["b.yaml<br/>unreadable"]`,
		"a_ctx_yaml --> b_yaml\n",
		`b_yaml -->|"cycle"| a_ctx_yaml`,
		"linkStyle 1 stroke:#e00",
		`missing_gone_yaml[/"gone.yaml (missing)"/]`,
		`a_ctx_yaml -.->|"missing"| missing_gone_yaml`,
		"style b_yaml fill:#a00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("mermaid lacks %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateASCII(t *testing.T) {
	g := &Graph{
		Nodes: []Node{{Name: "a.yaml"}, {Name: "b.yaml"}},
		Edges: []Edge{
			{From: "a.yaml", To: "b.yaml"},
			{From: "a.yaml", To: "x.yaml", Missing: true},
			{From: "b.yaml", To: "a.yaml", Cycle: true},
		},
	}
	out, err := Generate(g, FormatASCII)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Context references", "├─▶ b.yaml\n", "└─▶ x.yaml  ✗ missing", "└─▶ a.yaml  ⟳ cycle"} {
		if !strings.Contains(out, want) {
			t.Errorf("ascii lacks %q, got:\n%s", want, out)
		}
	}

	// Box borders share one width.
	var widths []int
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "┌") || strings.HasPrefix(trimmed, "╔") {
			widths = append(widths, len([]rune(trimmed)))
		}
	}
	for _, w := range widths[1:] {
		if w != widths[0] {
			t.Errorf("box widths differ: %v", widths)
			break
		}
	}
}

func TestGenerateASCIIEmpty(t *testing.T) {
	out, err := Generate(&Graph{}, FormatASCII)
	if err != nil {
		t.Fatal(err)
	}
	if out != "Context references (empty)\n" {
		t.Errorf("got %q", out)
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := Generate(nil, FormatMermaid); err == nil {
		t.Error("nil graph should fail")
	}
	if _, err := Generate(&Graph{}, "svg"); err == nil {
		t.Error("unknown format should fail")
	}
	if _, err := ParseFormat("svg"); err == nil {
		t.Error("ParseFormat(svg) should fail")
	}
}

func TestSharedScenarioGraph(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(file), "..", "..", "testdata", "scenarios", "circular-references", "contexts")
	if _, err := os.Stat(dir); err != nil {
		t.Skipf("testdata not found: %s", dir)
	}
	g, err := Build(dir, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 5 || !g.HasCycle() {
		t.Errorf("graph = %+v", g)
	}
}
