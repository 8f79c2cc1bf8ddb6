// Package watch re-runs work when a validated tree changes. Changes are
// debounced: a batch is delivered once no relevant event arrived for the
// configured delay.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Op is the kind of change.
type Op string

const (
	OpCreate Op = "create"
	OpModify Op = "modify"
	OpDelete Op = "delete"
)

// Change is one changed path, relative to the root with forward slashes.
type Change struct {
	Path string
	Op   Op
}

// Config configures a Watcher.
type Config struct {
	Debounce time.Duration
	// Dirs are the watched directories relative to the root. Empty means
	// every directory of the standard layout.
	Dirs []string
}

// Watcher watches one validated root.
type Watcher struct {
	root     string
	dirs     map[string]bool
	debounce time.Duration
	fsw      *fsnotify.Watcher
	log      *zap.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op
}

// New creates a Watcher for root. Call Close when done.
func New(root string, cfg Config, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", root)
	}

	dirs := cfg.Dirs
	if len(dirs) == 0 {
		for _, d := range standard.Default().Layout {
			dirs = append(dirs, d.Name)
		}
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:     root,
		dirs:     make(map[string]bool, len(dirs)),
		debounce: debounce,
		fsw:      fsw,
		log:      log,
		pending:  make(map[string]fsnotify.Op),
	}
	for _, d := range dirs {
		w.dirs[d] = true
	}

	// The root itself catches layout directories appearing later and
	// config file edits.
	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	for _, d := range dirs {
		w.addDir(d)
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) addDir(rel string) {
	path := filepath.Join(w.root, rel)
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.log.Warn("failed to watch directory", zap.String("dir", rel), zap.Error(err))
		return
	}
	w.log.Debug("watching directory", zap.String("dir", rel))
}

// Run delivers debounced batches to fn until ctx is done. fn runs on the
// calling goroutine, so two invocations never overlap; events arriving
// while fn runs are batched for the next call.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context, changes []Change)) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", zap.Error(err))

		case <-timer.C:
			if changes := w.flush(); len(changes) > 0 {
				w.log.Debug("changes settled", zap.Int("count", len(changes)))
				fn(ctx, changes)
			}
		}
	}
}

// handle records event when it is relevant and reports whether it was.
func (w *Watcher) handle(event fsnotify.Event) bool {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if !w.relevant(rel, event) {
		return false
	}

	w.pendingMu.Lock()
	w.pending[rel] |= event.Op
	w.pendingMu.Unlock()
	return true
}

func (w *Watcher) relevant(rel string, event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(rel)
	if strings.HasPrefix(base, ".") && base != standard.ConfigFile {
		return false
	}

	dir, _ := filepath.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	switch {
	case dir == "" && w.dirs[rel]:
		// A layout directory appeared or went away.
		if event.Has(fsnotify.Create) {
			w.addDir(rel)
		}
		return true
	case dir == "":
		return rel == standard.ConfigFile
	case w.dirs[dir]:
		return true
	}
	return false
}

// flush returns and clears the pending changes in path order.
func (w *Watcher) flush() []Change {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	changes := make([]Change, 0, len(w.pending))
	for rel, op := range w.pending {
		changes = append(changes, Change{Path: rel, Op: classify(filepath.Join(w.root, rel), op)})
	}
	w.pending = make(map[string]fsnotify.Op)
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

// classify maps accumulated fsnotify ops to one Op, using the file's current
// existence to settle create-then-delete sequences.
func classify(path string, op fsnotify.Op) Op {
	if _, err := os.Stat(path); err != nil {
		return OpDelete
	}
	if op.Has(fsnotify.Create) {
		return OpCreate
	}
	return OpModify
}
