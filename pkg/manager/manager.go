// Package manager orchestrates one validation run over a root directory:
// layout, naming, every schema, every context and the custom rules, merged
// into a single Report.
package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ormasoftchile/mcpstd/pkg/document"
	"github.com/ormasoftchile/mcpstd/pkg/result"
	"github.com/ormasoftchile/mcpstd/pkg/rules"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
	"github.com/ormasoftchile/mcpstd/pkg/validate"
)

// Report is the merged outcome of one run.
type Report struct {
	RunID           string    `json:"run_id"`
	Root            string    `json:"root"`
	StandardVersion string    `json:"standard_version"`
	StartedAt       time.Time `json:"started_at"`
	Duration        Duration  `json:"duration"`
	// Finished is false when the run stopped early: the layout was broken
	// or the context was cancelled.
	Finished bool `json:"finished"`
	// Files counts the documents of each kind that loaded.
	Files map[document.Kind]int `json:"files"`

	result.Summary
}

// Success reports whether the run found no errors.
func (r *Report) Success() bool { return r.OK() }

// Duration marshals as seconds.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%.3f", time.Duration(d).Seconds())), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Manager runs validations. It holds no per-run state, so one Manager may be
// used for many runs, including concurrent ones.
type Manager struct {
	root string
	std  *standard.Standard
	log  *zap.Logger
}

// New returns a Manager for root. A nil std uses the default standard and a
// nil logger discards output.
func New(root string, std *standard.Standard, log *zap.Logger) *Manager {
	if std == nil {
		std = standard.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{root: root, std: std, log: log}
}

// Root returns the validated directory.
func (m *Manager) Root() string { return m.root }

// Run performs a full validation pass. The returned error is non-nil only
// when ctx was cancelled; the partial report is returned alongside it.
func (m *Manager) Run(ctx context.Context) (*Report, error) {
	rep := &Report{
		RunID:           uuid.NewString(),
		Root:            m.root,
		StandardVersion: m.std.Version.String(),
		StartedAt:       time.Now(),
		Files:           map[document.Kind]int{document.KindSchema: 0, document.KindContext: 0},
	}
	log := m.log.With(zap.String("run_id", rep.RunID), zap.String("root", m.root))
	log.Info("validation started", zap.String("standard", rep.StandardVersion))

	loader := document.NewLoader(m.std.NormalizeEncoding, log)
	dir := validate.NewDirectoryValidator(m.root, m.std)
	schemas := validate.NewSchemaValidator(m.root, m.std, loader)
	contexts := validate.NewContextValidator(m.root, m.std, loader)
	engine := rules.NewEngine(m.std.Rules)

	finish := func(collectors ...*result.Collector) {
		for _, c := range collectors {
			rep.Merge(c)
		}
		rep.Duration = Duration(time.Since(rep.StartedAt))
		log.Info("validation finished",
			zap.Bool("finished", rep.Finished),
			zap.Int("errors", rep.ErrorCount),
			zap.Int("warnings", rep.WarningCount),
			zap.Duration("duration", rep.Duration.Std()))
	}

	if !dir.ValidateDirectoryStructure() {
		log.Warn("directory structure invalid, skipping content checks")
		finish(dir.Collector())
		return rep, nil
	}
	dir.ValidateAllFiles()

	all := []*result.Collector{dir.Collector(), schemas.Collector(), contexts.Collector(), engine.Collector()}

	for _, path := range m.documents(standard.DirSchemas) {
		if err := ctx.Err(); err != nil {
			finish(all...)
			return rep, err
		}
		rel := m.rel(path)
		log.Debug("validating schema", zap.String("file", rel))
		guard(schemas.Collector(), rel, func() {
			doc, _ := schemas.ValidateFile(path)
			if doc == nil {
				return
			}
			rep.Files[document.KindSchema]++
			if engine.Len() > 0 {
				engine.Evaluate(rel, doc)
			}
		})
	}

	for _, path := range m.documents(standard.DirContexts) {
		if err := ctx.Err(); err != nil {
			finish(all...)
			return rep, err
		}
		rel := m.rel(path)
		log.Debug("validating context", zap.String("file", rel))
		guard(contexts.Collector(), rel, func() {
			doc, _ := contexts.ValidateFile(path)
			if doc == nil {
				return
			}
			rep.Files[document.KindContext]++
			if engine.Len() > 0 {
				engine.Evaluate(rel, doc)
			}
		})
	}

	rep.Finished = true
	finish(all...)
	return rep, nil
}

// documents lists the *.yaml regular files of a layout directory in name
// order, minus ignored paths.
func (m *Manager) documents(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(m.root, dir, "*.yaml"))
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	out := matches[:0]
	for _, p := range matches {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if m.std.Ignored(m.rel(p)) {
			m.log.Debug("ignored", zap.String("file", m.rel(p)))
			continue
		}
		out = append(out, p)
	}
	return out
}

func (m *Manager) rel(path string) string {
	r, err := filepath.Rel(m.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}

// guard runs fn and turns a panic into a CRITICAL finding naming the file,
// so one bad document cannot abort the run.
func guard(col *result.Collector, file string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			col.AddCritical(file, "unexpected error while validating %s: %v", filepath.Base(file), r)
		}
	}()
	fn()
}
