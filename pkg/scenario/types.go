package scenario

// Status values of a Result.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Result captures the outcome of running one scenario against its expectation.
type Result struct {
	Name        string            `json:"name"`
	Dir         string            `json:"dir"`
	Description string            `json:"description,omitempty"`
	Status      string            `json:"status"`
	DurationMs  int64             `json:"duration_ms"`
	RunID       string            `json:"run_id,omitempty"`
	Assertions  []AssertionResult `json:"assertions"`
	Error       string            `json:"error,omitempty"`
}

// AssertionResult is the outcome of a single assertion check.
type AssertionResult struct {
	Type     string `json:"type"`          // expected_success, expected_errors, must_contain, ...
	Key      string `json:"key,omitempty"` // pattern for must_contain / must_not_contain
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`
}

// Summary aggregates results across scenarios.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Add counts one result.
func (s *Summary) Add(r Result) {
	s.Total++
	switch r.Status {
	case StatusPassed:
		s.Passed++
	case StatusFailed:
		s.Failed++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Errors++
	}
}

// OK reports whether no scenario failed or errored.
func (s Summary) OK() bool { return s.Failed == 0 && s.Errors == 0 }

// Output is the top-level JSON structure for mcpstd test --format json.
type Output struct {
	Dir       string   `json:"dir"`
	Scenarios []Result `json:"scenarios"`
	Summary   Summary  `json:"summary"`
}

// Observed is what a validation run reported, the input to Evaluate.
type Observed struct {
	Success  bool
	Finished bool
	Errors   int
	Warnings int
	Critical int
	Messages []string
}
