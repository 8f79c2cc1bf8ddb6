package result

import "fmt"

// Collector is the ordered, append-only result sink owned by one validator.
// It is not safe for concurrent use.
type Collector struct {
	name     string
	results  []Result
	errors   int
	warnings int
}

// NewCollector returns an empty collector labelled with the owning validator.
func NewCollector(name string) *Collector {
	return &Collector{name: name}
}

// Name returns the owning validator's label.
func (c *Collector) Name() string { return c.name }

// AddError records an error finding.
func (c *Collector) AddError(file, message string, severity Severity) {
	c.results = append(c.results, newResult(LevelError, file, message, severity))
	c.errors++
}

// AddErrorf is AddError with formatting.
func (c *Collector) AddErrorf(file string, severity Severity, format string, args ...any) {
	c.AddError(file, fmt.Sprintf(format, args...), severity)
}

// AddCritical records a critical error, the common case.
func (c *Collector) AddCritical(file, format string, args ...any) {
	c.AddError(file, fmt.Sprintf(format, args...), Critical)
}

// AddWarning records an advisory finding that never fails a run.
func (c *Collector) AddWarning(file, message string) {
	c.results = append(c.results, newResult(LevelWarning, file, message, NonCritical))
	c.warnings++
}

// AddWarningf is AddWarning with formatting.
func (c *Collector) AddWarningf(file, format string, args ...any) {
	c.AddWarning(file, fmt.Sprintf(format, args...))
}

// ErrorCount returns the number of errors recorded so far.
func (c *Collector) ErrorCount() int { return c.errors }

// WarningCount returns the number of warnings recorded so far.
func (c *Collector) WarningCount() int { return c.warnings }

// Len returns the total number of results.
func (c *Collector) Len() int { return len(c.results) }

// Results returns a copy of the recorded results in insertion order.
func (c *Collector) Results() []Result {
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}

// Since returns a copy of the results recorded after the first n.
func (c *Collector) Since(n int) []Result {
	if n >= len(c.results) {
		return nil
	}
	out := make([]Result, len(c.results)-n)
	copy(out, c.results[n:])
	return out
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

// Counts is the error/warning tally of a single validator.
type Counts struct {
	Validator string `json:"validator"`
	Errors    int    `json:"errors"`
	Warnings  int    `json:"warnings"`
}

// Summary merges several collectors, preserving per-validator counts.
type Summary struct {
	Results      []Result `json:"results"`
	ErrorCount   int      `json:"error_count"`
	WarningCount int      `json:"warning_count"`
	PerValidator []Counts `json:"per_validator"`
}

// Merge appends c's results and counts to the summary.
func (s *Summary) Merge(c *Collector) {
	if c == nil {
		return
	}
	s.Results = append(s.Results, c.results...)
	s.ErrorCount += c.errors
	s.WarningCount += c.warnings
	s.PerValidator = append(s.PerValidator, Counts{
		Validator: c.name,
		Errors:    c.errors,
		Warnings:  c.warnings,
	})
}

// OK reports whether no errors were merged. Warnings never fail a run.
func (s *Summary) OK() bool { return s.ErrorCount == 0 }

// Critical returns the number of critical errors.
func (s *Summary) Critical() int {
	n := 0
	for _, r := range s.Results {
		if r.IsCritical() {
			n++
		}
	}
	return n
}
