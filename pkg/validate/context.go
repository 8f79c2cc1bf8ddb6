package validate

import (
	"math"
	"path/filepath"

	"github.com/ormasoftchile/mcpstd/pkg/document"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

// ContextValidator checks documents under contexts/, including the
// cross-document reference graph and dependency declarations.
type ContextValidator struct {
	base
	contextsDir string
}

// NewContextValidator returns a validator for the contexts of root. Nil std
// and loader fall back to defaults.
func NewContextValidator(root string, std *standard.Standard, loader *document.Loader) *ContextValidator {
	return &ContextValidator{
		base:        newBase("context", root, std, loader),
		contextsDir: filepath.Join(root, standard.DirContexts),
	}
}

// ValidateFile loads path and runs every context check. Load failures are
// recorded and skip the remaining checks for this file only.
func (v *ContextValidator) ValidateFile(path string) (*document.ContextDocument, bool) {
	doc, err := v.loader.LoadContext(path)
	if err != nil {
		v.record(path, err)
		return nil, false
	}
	return doc, v.Validate(doc)
}

// Validate runs every context check on a loaded document.
func (v *ContextValidator) Validate(doc *document.ContextDocument) bool {
	checks := []bool{
		v.ValidateVersion(doc),
		v.ValidateRequiredFields(doc, "version", "type", "required_fields"),
		v.ValidateMetrics(doc),
		v.ValidateErrorSeverity(doc),
		v.ValidateContextReferences(doc),
		v.ValidateContextDependencies(doc),
	}
	if doc.MCPProtocol != nil {
		checks = append(checks,
			checkTransport(v.col, v.rel(doc.Path()), filepath.Base(doc.Path()), doc.MCPProtocol.Transport))
	}
	checks = append(checks, v.ValidateSampling(doc))

	for _, ok := range checks {
		if !ok {
			return false
		}
	}
	return true
}

// ValidateMetrics requires name and type on every metric and warns about a
// missing unit or threshold.
func (v *ContextValidator) ValidateMetrics(doc *document.ContextDocument) bool {
	file, name := v.rel(doc.Path()), filepath.Base(doc.Path())
	valid := true
	for _, m := range doc.Metrics {
		if !m.Name.Present() {
			v.col.AddCritical(file, "metric name missing in %s", name)
			valid = false
		}
		if !m.Type.Present() {
			v.col.AddCritical(file, "metric type missing in %s", name)
			valid = false
		}
		if !m.Unit.Present() {
			v.col.AddWarningf(file, "metric unit not defined in %s: %s", name, m.DisplayName())
		}
		if !m.Threshold.Present() {
			v.col.AddWarningf(file, "metric threshold not defined in %s: %s", name, m.DisplayName())
		}
	}
	return valid
}

// ValidateErrorSeverity checks every error_severity entry against the SLA
// ceiling of its level. Any violation is CRITICAL whatever the level.
func (v *ContextValidator) ValidateErrorSeverity(doc *document.ContextDocument) bool {
	file, name := v.rel(doc.Path()), filepath.Base(doc.Path())
	valid := true
	for _, rule := range doc.ErrorSeverity {
		level := rule.Level.Text()
		ceiling, known := v.std.SLA[level]
		if !rule.Level.IsString() || !known {
			v.col.AddCritical(file, "invalid error severity level in %s: %s", name, rule.Level.Display())
			valid = false
			continue
		}
		if !rule.ResponseTime.Present() {
			v.col.AddCritical(file, "response time not defined in %s for %s", name, level)
			valid = false
			continue
		}
		minutes, ok := rule.ResponseTime.Float()
		switch {
		case !ok || math.IsNaN(minutes):
			v.col.AddCritical(file, "invalid response time in %s for %s: %s", name, level, rule.ResponseTime.Display())
			valid = false
		case minutes > float64(ceiling):
			v.col.AddCritical(file, "%s response time exceeds SLA in %s: %smin > %dmin",
				level, name, rule.ResponseTime.Display(), ceiling)
			valid = false
		}
	}
	return valid
}
