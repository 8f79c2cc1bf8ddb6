package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ormasoftchile/mcpstd/pkg/manager"
	"github.com/ormasoftchile/mcpstd/pkg/result"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func report(id, root string, started time.Time, add func(c *result.Collector)) *manager.Report {
	c := result.NewCollector("schema")
	if add != nil {
		add(c)
	}
	rep := &manager.Report{
		RunID:           id,
		Root:            root,
		StandardVersion: "1.2.0",
		StartedAt:       started,
		Duration:        manager.Duration(250 * time.Millisecond),
		Finished:        true,
	}
	rep.Merge(c)
	return rep
}

func TestRecordRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 10, 19, 8, 30, 0, 123000000, time.UTC)

	rep := report("run-1", "/std", started, func(c *result.Collector) {
		c.AddCritical("schemas/error_schema.yaml", "error code out of range in error_schema.yaml: -32100")
		c.AddError("contexts/a.yaml", "rule owner failed in a.yaml", result.NonCritical)
		c.AddWarning("", "security warning: certificate pinning not configured")
	})
	if err := s.Record(ctx, rep); err != nil {
		t.Fatalf("Record: %v", err)
	}

	runs, err := s.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	want := []Run{{
		ID:           "run-1",
		Root:         "/std",
		Standard:     "1.2.0",
		StartedAt:    started,
		Duration:     250 * time.Millisecond,
		ErrorCount:   2,
		WarningCount: 1,
		Success:      false,
		Finished:     true,
	}}
	if diff := cmp.Diff(want, runs); diff != "" {
		t.Errorf("runs (-want +got):\n%s", diff)
	}

	findings, err := s.Findings(ctx, "run-1")
	if err != nil {
		t.Fatalf("Findings: %v", err)
	}
	if diff := cmp.Diff(rep.Results, findings); diff != "" {
		t.Errorf("findings (-want +got):\n%s", diff)
	}
}

func TestRecentOrderAndFilter(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	for i, root := range []string{"/a", "/b", "/a"} {
		rep := report(string(rune('x'+i)), root, base.Add(time.Duration(i)*time.Minute), nil)
		if err := s.Record(ctx, rep); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.Recent(ctx, "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "z" || runs[1].ID != "y" {
		t.Errorf("Recent = %+v", runs)
	}

	runs, err = s.Recent(ctx, "/a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "z" || runs[1].ID != "x" || !runs[0].Success {
		t.Errorf("Recent(/a) = %+v", runs)
	}
}

func TestRecordDuplicateRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	rep := report("dup", "/a", time.Now(), func(c *result.Collector) { c.AddWarning("", "w") })
	if err := s.Record(ctx, rep); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, rep); err == nil {
		t.Fatal("recording the same run twice should fail")
	}
	findings, err := s.Findings(ctx, "dup")
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 {
		t.Errorf("failed second record left %d findings", len(findings))
	}
}

func TestPrune(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		rep := report(string(rune('a'+i)), "/a", base.Add(time.Duration(i)*time.Hour), func(c *result.Collector) {
			c.AddCritical("", "boom")
		})
		if err := s.Record(ctx, rep); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.Prune(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("pruned %d runs, want 3", n)
	}
	runs, _ := s.Recent(ctx, "", 10)
	if len(runs) != 1 || runs[0].ID != "d" {
		t.Errorf("remaining = %+v", runs)
	}
	if f, _ := s.Findings(ctx, "a"); len(f) != 0 {
		t.Errorf("findings of pruned run survive: %+v", f)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Record(context.Background(), report("keep", "/a", time.Now(), nil)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path = %s", s.Path())
	}
	runs, err := s.Recent(context.Background(), "", 10)
	if err != nil || len(runs) != 1 {
		t.Errorf("runs = %+v, err = %v", runs, err)
	}
}
