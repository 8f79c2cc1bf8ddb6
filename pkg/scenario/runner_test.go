package scenario

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// scenariosDir returns the absolute path to the shared testdata/scenarios
// directory.
func scenariosDir(t *testing.T) string {
	t.Helper()
	_, file, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(file), "..", "..", "testdata", "scenarios")
	if _, err := os.Stat(dir); err != nil {
		t.Skipf("testdata directory not found: %s", dir)
	}
	return dir
}

// copyScenario copies one shared scenario into a temp dir so the test can
// change it.
func copyScenario(t *testing.T, name string) string {
	t.Helper()
	dst := filepath.Join(t.TempDir(), "scenarios", name)
	if err := os.CopyFS(dst, os.DirFS(filepath.Join(scenariosDir(t), name))); err != nil {
		t.Fatal(err)
	}
	return dst
}

func TestDiscover(t *testing.T) {
	scenarios, err := Discover(scenariosDir(t))
	if err != nil {
		t.Fatalf("discover error: %v", err)
	}
	if len(scenarios) < 5 {
		t.Fatalf("expected at least 5 scenarios, got %d", len(scenarios))
	}
	for i, s := range scenarios {
		if !s.HasExpect {
			t.Errorf("%s: expected HasExpect = true", s.Name)
		}
		if i > 0 && scenarios[i-1].Name >= s.Name {
			t.Errorf("scenarios not sorted: %s before %s", scenarios[i-1].Name, s.Name)
		}
	}
}

func TestDiscoverMissingDirectory(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestRunAllSharedScenarios(t *testing.T) {
	r := &Runner{}
	out, err := r.RunAll(context.Background(), scenariosDir(t), false)
	if err != nil {
		t.Fatalf("RunAll error: %v", err)
	}
	for _, s := range out.Scenarios {
		if s.Status == StatusPassed {
			continue
		}
		var failed []string
		for _, a := range s.Assertions {
			if !a.Passed {
				failed = append(failed, a.Message)
			}
		}
		t.Errorf("%s: status %s %s\n  %s", s.Name, s.Status, s.Error, strings.Join(failed, "\n  "))
	}
	if !out.Summary.OK() || out.Summary.Total != len(out.Scenarios) {
		t.Errorf("summary = %+v", out.Summary)
	}
}

func TestRunScenarioFailingExpectation(t *testing.T) {
	dir := copyScenario(t, "valid")
	if err := os.WriteFile(filepath.Join(dir, ExpectFile), []byte("expected_success: false\nmust_contain: [circular reference]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &Runner{}
	res, err := r.RunScenario(context.Background(), filepath.Dir(dir), "valid")
	if err != nil {
		t.Fatalf("RunScenario error: %v", err)
	}
	if res.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", res.Status)
	}
	if len(res.Assertions) != 2 || res.Assertions[0].Passed || res.Assertions[1].Passed {
		t.Errorf("assertions = %+v", res.Assertions)
	}
	if res.RunID == "" {
		t.Error("run id not recorded")
	}
}

func TestRunScenarioNotFound(t *testing.T) {
	r := &Runner{}
	if _, err := r.RunScenario(context.Background(), scenariosDir(t), "nope"); err == nil {
		t.Fatal("expected an error for an unknown scenario")
	}
}

func TestRunAllSkipsWithoutExpectation(t *testing.T) {
	dir := copyScenario(t, "valid")
	if err := os.Remove(filepath.Join(dir, ExpectFile)); err != nil {
		t.Fatal(err)
	}
	out, err := (&Runner{}).RunAll(context.Background(), filepath.Dir(dir), false)
	if err != nil {
		t.Fatal(err)
	}
	if out.Summary.Skipped != 1 || out.Scenarios[0].Status != StatusSkipped {
		t.Errorf("summary = %+v", out.Summary)
	}
}

func TestRunAllTagFilter(t *testing.T) {
	r := &Runner{Tags: []string{"layout"}}
	out, err := r.RunAll(context.Background(), scenariosDir(t), false)
	if err != nil {
		t.Fatal(err)
	}
	if out.Summary.Passed != 1 || out.Summary.Skipped != out.Summary.Total-1 {
		t.Errorf("summary = %+v", out.Summary)
	}
}

func TestRunAllBadExpectation(t *testing.T) {
	dir := copyScenario(t, "valid")
	if err := os.WriteFile(filepath.Join(dir, ExpectFile), []byte("expected_errors: [1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := (&Runner{}).RunAll(context.Background(), filepath.Dir(dir), true)
	if err != nil {
		t.Fatal(err)
	}
	if out.Summary.Errors != 1 || !strings.Contains(out.Scenarios[0].Error, ExpectFile) {
		t.Errorf("output = %+v", out)
	}
}
