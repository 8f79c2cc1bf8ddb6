package validate

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/ormasoftchile/mcpstd/pkg/document"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

// ValidateContextReferences walks context_references depth first from doc.
// Every branch carries its own copy of the ancestor path, so a target reached
// through two independent references is walked twice while a reference back
// to an ancestor is a cycle. Targets are re-read from disk on every visit.
func (v *ContextValidator) ValidateContextReferences(doc *document.ContextDocument) bool {
	start := filepath.Base(doc.Path())
	return v.walkReferences(start, doc.ContextReferences, []string{start})
}

func (v *ContextValidator) walkReferences(current string, refs []string, ancestors []string) bool {
	file := standard.DirContexts + "/" + current
	valid := true
	for _, ref := range refs {
		refFile := ref + ".yaml"
		refPath := filepath.Join(v.contextsDir, refFile)

		if !exists(refPath) {
			v.col.AddCritical(file, "invalid context reference in %s: %s", current, ref)
			valid = false
			continue
		}
		if slices.Contains(ancestors, refFile) {
			cycle := append(slices.Clone(ancestors), refFile)
			v.col.AddCritical(file, "circular reference detected: %s", strings.Join(cycle, " -> "))
			valid = false
			continue
		}

		target, err := v.loader.LoadContext(refPath)
		if err != nil {
			v.col.AddCritical(file, "failed to load referenced context %s: %v", refFile, err)
			valid = false
			continue
		}
		if !v.walkReferences(refFile, target.ContextReferences, append(slices.Clone(ancestors), refFile)) {
			valid = false
		}
	}
	return valid
}

// ValidateContextDependencies checks dependencies.required_versions and
// dependencies.required_features against the referenced contexts.
func (v *ContextValidator) ValidateContextDependencies(doc *document.ContextDocument) bool {
	deps := doc.Dependencies
	if deps == nil {
		return true
	}
	file, name := v.rel(doc.Path()), filepath.Base(doc.Path())
	valid := true

	for _, ctx := range sortedKeys(deps.RequiredVersions) {
		required := deps.RequiredVersions[ctx]
		target, ok := v.loadDependency(file, name, ctx)
		if !ok {
			valid = false
			continue
		}
		if !target.Version.Present() || target.Version.Text() == "" {
			v.col.AddCritical(file, "dependency context declares no version: %s", ctx)
			valid = false
			continue
		}
		actual := target.Version.Text()
		if !standard.CompatibleStrings(required, actual) {
			v.col.AddCritical(file, "version compatibility error in %s: %s requires %s, but found %s",
				name, ctx, required, actual)
			valid = false
		}
	}

	for _, ctx := range sortedKeys(deps.RequiredFeatures) {
		target, ok := v.loadDependency(file, name, ctx)
		if !ok {
			valid = false
			continue
		}
		for _, feature := range deps.RequiredFeatures[ctx] {
			if !target.Features.Contains(feature) {
				v.col.AddCritical(file, "required feature not found in %s: %s does not provide %s", name, ctx, feature)
				valid = false
			}
		}
	}
	return valid
}

func (v *ContextValidator) loadDependency(file, name, ctx string) (*document.ContextDocument, bool) {
	path := filepath.Join(v.contextsDir, ctx+".yaml")
	if !exists(path) {
		v.col.AddCritical(file, "dependency context not found in %s: %s", name, ctx)
		return nil, false
	}
	target, err := v.loader.LoadContext(path)
	if err != nil {
		v.col.AddCritical(file, "failed to load dependency context %s: %v", ctx, err)
		return nil, false
	}
	return target, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
