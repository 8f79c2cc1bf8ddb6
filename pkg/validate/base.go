// Package validate implements the directory, schema and context validators.
// Every check records its findings in the validator's own collector and
// returns whether the checked item passed; checks never return Go errors.
package validate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ormasoftchile/mcpstd/pkg/document"
	"github.com/ormasoftchile/mcpstd/pkg/result"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

// base holds what every validator needs.
type base struct {
	root   string
	std    *standard.Standard
	loader *document.Loader
	col    *result.Collector
}

func newBase(name, root string, std *standard.Standard, loader *document.Loader) base {
	if std == nil {
		std = standard.Default()
	}
	if loader == nil {
		loader = document.NewLoader(std.NormalizeEncoding, nil)
	}
	return base{root: root, std: std, loader: loader, col: result.NewCollector(name)}
}

// Collector returns the validator's findings.
func (b *base) Collector() *result.Collector { return b.col }

// rel returns path relative to the root in slash form, or path unchanged if
// it lies outside the root.
func (b *base) rel(path string) string {
	r, err := filepath.Rel(b.root, path)
	if err != nil || strings.HasPrefix(r, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}

// record turns a load failure into CRITICAL findings.
func (b *base) record(path string, err error) {
	file := b.rel(path)
	var le *document.LoadError
	if errors.As(err, &le) {
		for _, msg := range le.Messages() {
			b.col.AddError(file, msg, result.Critical)
		}
		return
	}
	b.col.AddCritical(file, "failed to validate %s: %v", filepath.Base(path), err)
}

// ValidateVersion checks the document's own version against the pinned
// standard. At most one error is recorded.
func (b *base) ValidateVersion(doc document.Document) bool {
	file := b.rel(doc.Path())
	name := filepath.Base(doc.Path())
	if !doc.Has("version") {
		b.col.AddCritical(file, "missing version in %s", name)
		return false
	}
	text := doc.Head().Version.Text()
	v, err := standard.ParseSemver(text)
	if err != nil {
		b.col.AddCritical(file, "invalid version format in %s: %s (format: MAJOR.MINOR.PATCH)", name, doc.Head().Version.Display())
		return false
	}
	want := b.std.Version
	switch {
	case v.Major != want.Major:
		b.col.AddCritical(file, "incompatible major version in %s: %s (required: %d.x.x)", name, text, want.Major)
	case v.Minor != want.Minor:
		b.col.AddCritical(file, "incompatible minor version in %s: %s (required: %d.%d.x)", name, text, want.Major, want.Minor)
	case v.Patch != want.Patch:
		b.col.AddCritical(file, "incompatible patch version in %s: %s (required: %s)", name, text, want)
	default:
		return true
	}
	return false
}

// ValidateRequiredFields records one error listing every missing top-level key.
func (b *base) ValidateRequiredFields(doc document.Document, fields ...string) bool {
	var missing []string
	for _, f := range fields {
		if !doc.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return true
	}
	b.col.AddCritical(b.rel(doc.Path()), "missing required fields in %s: %s",
		filepath.Base(doc.Path()), strings.Join(missing, ", "))
	return false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
