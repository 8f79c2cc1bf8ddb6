package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ormasoftchile/mcpstd/pkg/result"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

const (
	validContext = "version: 1.2.0\ntype: context\nrequired_fields: [version, type]\n"
	ipcFields    = "required_fields: [transport_type, jsonrpc_message, timeout, retry_policy]\n"
)

// newTree builds a root that passes every check of the default standard.
func newTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range standard.Default().Layout {
		for _, name := range dir.Files {
			var body string
			switch {
			case name == "context_schema.yaml" || name == "process_schema.yaml":
				body = "version: 1.2.0\ntype: " + strings.TrimSuffix(name, ".yaml") + "\n" + ipcFields
			case strings.HasSuffix(name, "_schema.yaml"):
				body = "version: 1.2.0\ntype: " + strings.TrimSuffix(name, ".yaml") + "\n"
			case dir.Name == standard.DirContexts:
				body = validContext
			default:
				body = "# fixture\n"
			}
			writeFile(t, root, filepath.Join(dir.Name, name), body)
		}
	}
	return root
}

func writeFile(t *testing.T, root, rel, body string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func messages(c *result.Collector) []string {
	var out []string
	for _, r := range c.Results() {
		out = append(out, r.Message)
	}
	return out
}

// matching returns the results whose message contains substr.
func matching(c *result.Collector, substr string) []result.Result {
	var out []result.Result
	for _, r := range c.Results() {
		if strings.Contains(r.Message, substr) {
			out = append(out, r)
		}
	}
	return out
}

func expectClean(t *testing.T, c *result.Collector) {
	t.Helper()
	if c.Len() != 0 {
		t.Errorf("expected no findings, got:\n%s", strings.Join(messages(c), "\n"))
	}
}

func expectCritical(t *testing.T, c *result.Collector, substr string) {
	t.Helper()
	found := matching(c, substr)
	if len(found) == 0 {
		t.Errorf("no finding mentions %q; got:\n%s", substr, strings.Join(messages(c), "\n"))
		return
	}
	for _, r := range found {
		if r.Level != result.LevelError || r.Severity != result.Critical {
			t.Errorf("finding %q is %s/%s, want ERROR/critical", r.Message, r.Level, r.Severity)
		}
	}
}
