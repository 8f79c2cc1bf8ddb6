package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newRoot(t *testing.T, dirs ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// start runs w in the background and returns the channel of batches.
func start(t *testing.T, w *Watcher) <-chan []Change {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []Change, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, func(_ context.Context, changes []Change) { batches <- changes })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return batches
}

func waitBatch(t *testing.T, batches <-chan []Change) []Change {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered")
		return nil
	}
}

func write(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatchDebouncesIntoOneBatch(t *testing.T) {
	root := newRoot(t, "schemas", "contexts")
	w, err := New(root, Config{Debounce: 100 * time.Millisecond}, nil)
	if err != nil {
		t.Fatal(err)
	}
	batches := start(t, w)

	write(t, filepath.Join(root, "schemas", "error_schema.yaml"), "version: 1.2.0\n")
	write(t, filepath.Join(root, "contexts", "global_context.yaml"), "version: 1.2.0\n")
	write(t, filepath.Join(root, "contexts", "global_context.yaml"), "version: 1.2.0\ntype: global\n")

	got := waitBatch(t, batches)
	if len(got) != 2 {
		t.Fatalf("batch = %+v, want 2 paths", got)
	}
	if got[0].Path != "contexts/global_context.yaml" || got[1].Path != "schemas/error_schema.yaml" {
		t.Errorf("paths = %+v", got)
	}
	for _, c := range got {
		if c.Op != OpCreate {
			t.Errorf("%s: op = %s, want create", c.Path, c.Op)
		}
	}
}

func TestWatchIgnoresUnrelatedFiles(t *testing.T) {
	root := newRoot(t, "schemas")
	w, err := New(root, Config{Debounce: 50 * time.Millisecond}, nil)
	if err != nil {
		t.Fatal(err)
	}
	batches := start(t, w)

	write(t, filepath.Join(root, "validation_report.md"), "# report\n")
	write(t, filepath.Join(root, "schemas", ".mcpstd-123"), "tmp")
	write(t, filepath.Join(root, ".mcpstd.yaml"), "ignore: []\n")

	got := waitBatch(t, batches)
	if len(got) != 1 || got[0].Path != ".mcpstd.yaml" {
		t.Errorf("batch = %+v, want only the config file", got)
	}
}

func TestWatchPicksUpNewLayoutDirectory(t *testing.T) {
	root := newRoot(t)
	w, err := New(root, Config{Debounce: 50 * time.Millisecond}, nil)
	if err != nil {
		t.Fatal(err)
	}
	batches := start(t, w)

	if err := os.Mkdir(filepath.Join(root, "contexts"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := waitBatch(t, batches); len(got) != 1 || got[0].Path != "contexts" {
		t.Fatalf("batch = %+v", got)
	}

	write(t, filepath.Join(root, "contexts", "mcp_context.yaml"), "version: 1.2.0\n")
	got := waitBatch(t, batches)
	if len(got) != 1 || got[0].Path != "contexts/mcp_context.yaml" {
		t.Errorf("batch = %+v", got)
	}
}

func TestWatchDelete(t *testing.T) {
	root := newRoot(t, "contexts")
	path := filepath.Join(root, "contexts", "old.yaml")
	write(t, path, "version: 1.2.0\n")

	w, err := New(root, Config{Debounce: 50 * time.Millisecond}, nil)
	if err != nil {
		t.Fatal(err)
	}
	batches := start(t, w)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	got := waitBatch(t, batches)
	if len(got) != 1 || got[0].Op != OpDelete {
		t.Errorf("batch = %+v", got)
	}
}

func TestNewRejectsMissingRoot(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope"), Config{}, nil); err == nil {
		t.Fatal("expected an error")
	}
}

func TestClassify(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "x.yaml")
	write(t, existing, "")
	tests := []struct {
		path string
		op   fsnotify.Op
		want Op
	}{
		{existing, fsnotify.Create | fsnotify.Write, OpCreate},
		{existing, fsnotify.Write, OpModify},
		{existing + ".gone", fsnotify.Create | fsnotify.Remove, OpDelete},
	}
	for _, tt := range tests {
		if got := classify(tt.path, tt.op); got != tt.want {
			t.Errorf("classify(%s, %v) = %s, want %s", filepath.Base(tt.path), tt.op, got, tt.want)
		}
	}
}
