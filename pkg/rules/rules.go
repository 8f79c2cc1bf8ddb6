// Package rules evaluates user-declared expression rules against loaded
// documents. A rule is an expr-lang boolean program; a document fails the
// rule when the program returns false.
package rules

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ormasoftchile/mcpstd/pkg/document"
	"github.com/ormasoftchile/mcpstd/pkg/result"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

// Rule is a compiled RuleSpec.
type Rule struct {
	Spec    standard.RuleSpec
	program *vm.Program
	err     error
}

// Applies reports whether the rule runs on documents of kind.
func (r *Rule) Applies(kind document.Kind) bool {
	switch r.Spec.AppliesTo {
	case "", "all":
		return true
	}
	return r.Spec.AppliesTo == string(kind)
}

// Engine holds compiled rules and their findings.
type Engine struct {
	rules []*Rule
	col   *result.Collector
}

// sampleEnv fixes the variable types rules are compiled against.
func sampleEnv() map[string]any {
	return map[string]any{
		"doc":  map[string]any{},
		"file": "",
		"kind": "",
	}
}

// NewEngine compiles specs. A rule that fails to compile is reported once as
// a CRITICAL finding and skipped during evaluation.
func NewEngine(specs []standard.RuleSpec) *Engine {
	e := &Engine{col: result.NewCollector("rules")}
	for _, spec := range specs {
		r := &Rule{Spec: spec}
		r.program, r.err = expr.Compile(spec.Expr, expr.Env(sampleEnv()), expr.AsBool())
		if r.err != nil {
			e.col.AddCritical("", "rule %s does not compile: %v", spec.Name, oneLine(r.err))
		}
		e.rules = append(e.rules, r)
	}
	return e
}

// Collector returns the rule findings.
func (e *Engine) Collector() *result.Collector { return e.col }

// Len returns the number of configured rules.
func (e *Engine) Len() int { return len(e.rules) }

// Evaluate runs every applicable rule on doc. file is the path recorded on
// findings. It returns false if any rule failed or errored.
func (e *Engine) Evaluate(file string, doc document.Document) bool {
	env := map[string]any{
		"doc":  doc.Fields(),
		"file": file,
		"kind": string(doc.Kind()),
	}
	name := filepath.Base(doc.Path())

	valid := true
	for _, r := range e.rules {
		if r.err != nil || !r.Applies(doc.Kind()) {
			continue
		}
		out, err := expr.Run(r.program, env)
		if err != nil {
			e.col.AddCritical(file, "rule %s could not be evaluated on %s: %v", r.Spec.Name, name, oneLine(err))
			valid = false
			continue
		}
		if ok, _ := out.(bool); ok {
			continue
		}
		if !e.report(file, name, r) {
			valid = false
		}
	}
	return valid
}

// report records a failed rule and returns whether it counts as passing
// (warnings do).
func (e *Engine) report(file, name string, r *Rule) bool {
	msg := r.Spec.Message
	if msg == "" {
		msg = fmt.Sprintf("expression %q is false", r.Spec.Expr)
	}
	text := fmt.Sprintf("rule %s failed in %s: %s", r.Spec.Name, name, msg)

	if r.Spec.Severity == "warning" {
		e.col.AddWarning(file, text)
		return true
	}
	sev := result.NonCritical
	if r.Spec.Severity != "" {
		if s, err := result.ParseSeverity(r.Spec.Severity); err == nil {
			sev = s
		}
	}
	e.col.AddError(file, text, sev)
	return false
}

func oneLine(err error) string {
	return strings.Join(strings.Fields(err.Error()), " ")
}
